// Package lpformat defines the contract external LP-format collaborators
// plug into, and ships one concrete, minimal, round-trippable writer/reader
// pair: just enough free-form algebraic syntax to exercise the round-trip
// testable property (spec.md §8, "save/load ... LP format preserves the
// model"). It is scaffolding for the contract, not a parser for the full LP
// grammar: no free sections (a `sec` line marks a column semi-continuous but
// carries no semi-continuous lower bound), no multi-line wrapping, no
// operator-relation chaining (`1 <= x <= 10` on one constraint line), and
// names must be single tokens with no embedded whitespace.
package lpformat

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/raller09/lp-solve-sub003/model"
)

// ModelReader parses a Model from r (spec.md §6's external LP-reader
// contract).
type ModelReader interface {
	ReadModel(r io.Reader) (*model.Model, error)
}

// ModelWriter serializes m to w.
type ModelWriter interface {
	WriteModel(w io.Writer, m *model.Model) error
}

// Codec is the package's own minimal ModelReader/ModelWriter.
type Codec struct{}

var _ ModelReader = Codec{}
var _ ModelWriter = Codec{}

// WriteModel emits m in this package's free-form syntax:
//
//	/* name */
//	max: 3 x1 + 2 x2;
//	c1: x1 + x2 <= 4;
//	0 <= x1 <= 10;
//	int x2;
func (Codec) WriteModel(w io.Writer, m *model.Model) error {
	bw := bufio.NewWriter(w)
	if m.Name != "" {
		fmt.Fprintf(bw, "/* %s */\n", m.Name)
	}
	sense := "min"
	if m.Sense == model.Maximize {
		sense = "max"
	}
	fmt.Fprintf(bw, "%s: %s;\n", sense, objTerms(m))

	for i, row := range m.Rows {
		terms := rowTerms(m, i)
		rel, rhs := relOp(row)
		fmt.Fprintf(bw, "%s: %s %s %s;\n", row.Name, terms, rel, fmtNum(rhs))
	}

	for j, v := range m.Vars {
		if v.Lower != 0 || !math.IsInf(v.Upper, 1) {
			fmt.Fprintf(bw, "%s <= %s <= %s;\n", fmtNum(v.Lower), v.Name, fmtNum(v.Upper))
		}
		switch v.Kind {
		case model.Integer:
			fmt.Fprintf(bw, "int %s;\n", v.Name)
		case model.Binary:
			fmt.Fprintf(bw, "bin %s;\n", v.Name)
		case model.SemiContinuous:
			fmt.Fprintf(bw, "sec %s;\n", v.Name)
		}
		_ = j
	}
	return bw.Flush()
}

func objTerms(m *model.Model) string {
	var b strings.Builder
	first := true
	for j, v := range m.Vars {
		if v.Obj == 0 {
			continue
		}
		writeTerm(&b, v.Obj, m.Vars[j].Name, &first)
	}
	if first {
		return "0"
	}
	return b.String()
}

func rowTerms(m *model.Model, row int) string {
	var b strings.Builder
	first := true
	for j := 0; j < m.NCols(); j++ {
		c, _ := m.Element(row, j)
		if c == 0 {
			continue
		}
		writeTerm(&b, c, m.Vars[j].Name, &first)
	}
	if first {
		return "0"
	}
	return b.String()
}

func writeTerm(b *strings.Builder, coef float64, name string, first *bool) {
	if !*first {
		if coef >= 0 {
			b.WriteString(" + ")
		} else {
			b.WriteString(" - ")
		}
	} else if coef < 0 {
		b.WriteString("-")
	}
	*first = false
	fmt.Fprintf(b, "%s %s", fmtNum(math.Abs(coef)), name)
}

func relOp(row model.Row) (string, float64) {
	switch row.Type() {
	case model.RowGE:
		return ">=", row.Lhs
	case model.RowEQ:
		return "=", row.Rhs
	default: // RowLE, RowRange, RowFree are written as their finite side
		return "<=", row.Rhs
	}
}

func fmtNum(v float64) string {
	if math.IsInf(v, 1) {
		return "1e30"
	}
	if math.IsInf(v, -1) {
		return "-1e30"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadModel parses the syntax WriteModel produces. Row/variable order in
// the output model follows first-mention order in the input.
func (Codec) ReadModel(r io.Reader) (*model.Model, error) {
	p := &parser{m: model.New(0, 0)}
	sc := bufio.NewScanner(r)
	var buf strings.Builder
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "/*") && strings.HasSuffix(line, "*/") {
			p.m.Name = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "/*"), "*/"))
			continue
		}
		buf.WriteString(line)
		buf.WriteByte(' ')
		if strings.HasSuffix(line, ";") {
			if err := p.statement(strings.TrimSpace(buf.String())); err != nil {
				return nil, fmt.Errorf("lpformat: line %d: %w", lineNo, err)
			}
			buf.Reset()
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(buf.String()) != "" {
		return nil, fmt.Errorf("lpformat: unterminated statement %q", buf.String())
	}
	if !p.sawObjective {
		return nil, fmt.Errorf("lpformat: missing objective statement")
	}
	return p.m, nil
}

type parser struct {
	m            *model.Model
	sawObjective bool
}

// statement dispatches one `;`-terminated input statement to the right
// handler by its leading keyword/shape.
func (p *parser) statement(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), ";")
	if s == "" {
		return nil
	}
	switch {
	case strings.HasPrefix(s, "max:"):
		p.sawObjective = true
		return p.objective(strings.TrimPrefix(s, "max:"), model.Maximize)
	case strings.HasPrefix(s, "min:"):
		p.sawObjective = true
		return p.objective(strings.TrimPrefix(s, "min:"), model.Minimize)
	case strings.HasPrefix(s, "int "):
		return p.setKind(strings.TrimSpace(strings.TrimPrefix(s, "int ")), model.Integer)
	case strings.HasPrefix(s, "bin "):
		return p.setKind(strings.TrimSpace(strings.TrimPrefix(s, "bin ")), model.Binary)
	case strings.HasPrefix(s, "sec "):
		return p.setKind(strings.TrimSpace(strings.TrimPrefix(s, "sec ")), model.SemiContinuous)
	default:
		return p.constraintOrBound(s)
	}
}

func (p *parser) objective(body string, sense model.Sense) error {
	p.m.Sense = sense
	terms, err := parseTerms(body, p.m)
	if err != nil {
		return err
	}
	for name, coef := range terms {
		j := p.col(name)
		p.m.Vars[j].Obj = coef
	}
	return nil
}

func (p *parser) setKind(name string, kind model.Kind) error {
	j := p.col(name)
	p.m.Vars[j].Kind = kind
	if kind == model.Binary {
		return p.m.SetBounds(j, 0, 1)
	}
	return nil
}

// constraintOrBound handles both `name: terms rel rhs` constraint lines
// and unnamed `lo <= name <= hi` / `name rel rhs` bound lines.
func (p *parser) constraintOrBound(s string) error {
	name, body, named := strings.Cut(s, ":")
	if named {
		return p.constraint(strings.TrimSpace(name), strings.TrimSpace(body))
	}
	return p.bound(s)
}

func (p *parser) constraint(name, body string) error {
	rel, lhs, rhs, err := splitRel(body)
	if err != nil {
		return err
	}
	terms, err := parseTerms(lhs, p.m)
	if err != nil {
		return err
	}
	idx := make([]int, 0, len(terms))
	coefs := make([]float64, 0, len(terms))
	for varName, coef := range terms {
		idx = append(idx, p.col(varName))
		coefs = append(coefs, coef)
	}
	rt, err := rowType(rel)
	if err != nil {
		return err
	}
	_, err = p.m.AddConstraint(name, idx, coefs, rt, rhs)
	return err
}

func (p *parser) bound(s string) error {
	fields := strings.Fields(s)
	switch {
	case len(fields) == 5 && fields[1] == "<=" && fields[3] == "<=":
		lo, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return err
		}
		hi, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return err
		}
		return p.m.SetBounds(p.col(fields[2]), clampInf(lo), clampInf(hi))
	case len(fields) == 3:
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return err
		}
		j := p.col(fields[0])
		switch fields[1] {
		case "<=":
			return p.m.SetBounds(j, p.m.Vars[j].Lower, clampInf(v))
		case ">=":
			return p.m.SetBounds(j, clampInf(v), p.m.Vars[j].Upper)
		case "=":
			return p.m.SetBounds(j, v, v)
		}
		return fmt.Errorf("unsupported bound relation %q", fields[1])
	}
	return fmt.Errorf("unrecognized statement %q", s)
}

func clampInf(v float64) float64 {
	if v >= 1e30 {
		return math.Inf(1)
	}
	if v <= -1e30 {
		return math.Inf(-1)
	}
	return v
}

func splitRel(s string) (rel string, lhs string, rhs float64, err error) {
	for _, op := range []string{"<=", ">=", "="} {
		if i := strings.Index(s, op); i >= 0 {
			rhsStr := strings.TrimSpace(s[i+len(op):])
			val, perr := strconv.ParseFloat(rhsStr, 64)
			if perr != nil {
				return "", "", 0, perr
			}
			return op, strings.TrimSpace(s[:i]), val, nil
		}
	}
	return "", "", 0, fmt.Errorf("missing relational operator in %q", s)
}

func rowType(rel string) (model.RowType, error) {
	switch rel {
	case "<=":
		return model.RowLE, nil
	case ">=":
		return model.RowGE, nil
	case "=":
		return model.RowEQ, nil
	default:
		return 0, fmt.Errorf("unknown relation %q", rel)
	}
}

// parseTerms splits body into `coef name` terms separated by + or -,
// introducing any name not yet a column with an implicit coefficient of 1
// if bare.
func parseTerms(body string, m *model.Model) (map[string]float64, error) {
	terms := make(map[string]float64)
	if strings.TrimSpace(body) == "0" { // WriteModel's spelling of an empty term list
		return terms, nil
	}
	body = strings.ReplaceAll(body, "-", " -")
	body = strings.ReplaceAll(body, "+", " +")
	fields := strings.Fields(body)
	i := 0
	next := func() (string, error) {
		if i >= len(fields) {
			return "", fmt.Errorf("unexpected end of term list in %q", body)
		}
		t := fields[i]
		i++
		return t, nil
	}
	for i < len(fields) {
		sign := 1.0
		tok, err := next()
		if err != nil {
			return nil, err
		}
		if tok == "+" {
			tok, err = next()
		} else if tok == "-" {
			sign = -1
			tok, err = next()
		}
		if err != nil {
			return nil, err
		}
		coef := 1.0
		if v, perr := strconv.ParseFloat(tok, 64); perr == nil {
			coef = v
			if tok, err = next(); err != nil {
				return nil, err
			}
		}
		if _, ok := m.ColumnIndex(tok); !ok {
			if _, err := m.AddColumn(tok, 0, nil, nil); err != nil {
				return nil, err
			}
		}
		terms[tok] += sign * coef
	}
	return terms, nil
}

// col resolves name to a column index, appending a new continuous variable
// with [0, +Inf) bounds if it is not already declared.
func (p *parser) col(name string) int {
	if j, ok := p.m.ColumnIndex(name); ok {
		return j
	}
	j, _ := p.m.AddColumn(name, 0, nil, nil)
	return j
}
