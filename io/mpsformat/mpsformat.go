// Package mpsformat defines the contract external MPS-format collaborators
// plug into, and ships one concrete, minimal, round-trippable writer/reader
// pair over a free (whitespace-delimited, not fixed-column) MPS dialect:
// just enough of the NAME/ROWS/COLUMNS/RHS/RANGES/BOUNDS/ENDATA section
// structure to exercise the round-trip testable property (spec.md §8). It
// is scaffolding for the contract, not a parser for the fixed-column MPS
// grammar or its negative-transportation/free-row extensions.
package mpsformat

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/raller09/lp-solve-sub003/model"
)

// ModelReader parses a Model from r.
type ModelReader interface {
	ReadModel(r io.Reader) (*model.Model, error)
}

// ModelWriter serializes m to w.
type ModelWriter interface {
	WriteModel(w io.Writer, m *model.Model) error
}

// Codec is the package's own minimal free-MPS ModelReader/ModelWriter.
type Codec struct{}

var _ ModelReader = Codec{}
var _ ModelWriter = Codec{}

const infinity = 1e30

// WriteModel emits m as free MPS: one ROWS line per row (objective first,
// tagged N), one COLUMNS line per nonzero, one RHS line per row whose
// right-hand side is nonzero,
// one RANGES line per two-sided row, one BOUNDS line per non-default
// bound, and a MARKER pair around INTORG/INTEND columns.
func (Codec) WriteModel(w io.Writer, m *model.Model) error {
	bw := bufio.NewWriter(w)
	name := m.Name
	if name == "" {
		name = "MODEL"
	}
	fmt.Fprintf(bw, "NAME %s\n", name)

	fmt.Fprintln(bw, "ROWS")
	objSense := "N"
	fmt.Fprintf(bw, " %s OBJ\n", objSense)
	for _, row := range m.Rows {
		fmt.Fprintf(bw, " %s %s\n", mpsRowType(row), row.Name)
	}

	fmt.Fprintln(bw, "COLUMNS")
	inInt := false
	for j, v := range m.Vars {
		discrete := v.Kind == model.Integer || v.Kind == model.Binary
		if discrete && !inInt {
			fmt.Fprintln(bw, "    MARKER INTORG")
			inInt = true
		} else if !discrete && inInt {
			fmt.Fprintln(bw, "    MARKER INTEND")
			inInt = false
		}
		if v.Obj != 0 {
			fmt.Fprintf(bw, " %s OBJ %s\n", v.Name, fmtNum(v.Obj))
		}
		for i, row := range m.Rows {
			_ = row
			c, _ := m.Element(i, j)
			if c != 0 {
				fmt.Fprintf(bw, " %s %s %s\n", v.Name, m.Rows[i].Name, fmtNum(c))
			}
		}
	}
	if inInt {
		fmt.Fprintln(bw, "    MARKER INTEND")
	}

	fmt.Fprintln(bw, "RHS")
	for _, row := range m.Rows {
		_, rhs := mpsSide(row)
		if rhs != 0 {
			fmt.Fprintf(bw, " RHS %s %s\n", row.Name, fmtNum(rhs))
		}
	}

	fmt.Fprintln(bw, "RANGES")
	for _, row := range m.Rows {
		if row.Type() == model.RowRange {
			fmt.Fprintf(bw, " RNG %s %s\n", row.Name, fmtNum(row.Rhs-row.Lhs))
		}
	}

	fmt.Fprintln(bw, "BOUNDS")
	for _, v := range m.Vars {
		switch {
		case v.Kind == model.Binary:
			fmt.Fprintf(bw, " BV BND %s\n", v.Name)
		case v.IsFixed():
			fmt.Fprintf(bw, " FX BND %s %s\n", v.Name, fmtNum(v.Lower))
		case v.IsFree():
			fmt.Fprintf(bw, " FR BND %s\n", v.Name)
		default:
			if v.Lower != 0 {
				fmt.Fprintf(bw, " LO BND %s %s\n", v.Name, fmtNum(v.Lower))
			}
			if !math.IsInf(v.Upper, 1) {
				fmt.Fprintf(bw, " UP BND %s %s\n", v.Name, fmtNum(v.Upper))
			}
		}
	}

	fmt.Fprintln(bw, "ENDATA")
	return bw.Flush()
}

// mpsRowType maps a row to its MPS ROWS-section letter. RowRange rows are
// written as "L" (their finite Rhs), with RANGES recording the width down
// to Lhs, the conventional MPS encoding of a two-sided row; a free
// constraint row (RowFree) has no letter of its own in this minimal
// dialect and is not round-trippable, a documented limitation rather than
// a case this format covers.
func mpsRowType(r model.Row) string {
	switch r.Type() {
	case model.RowLE, model.RowRange:
		return "L"
	case model.RowGE:
		return "G"
	case model.RowEQ:
		return "E"
	default:
		return "N"
	}
}

// mpsSide returns the side value MPS's single RHS slot records for r:
// the finite bound a single-sided row has, or the Rhs of a two-sided or
// equality row (RANGES records the width separately).
func mpsSide(r model.Row) (kind string, v float64) {
	switch r.Type() {
	case model.RowGE:
		return "G", r.Lhs
	case model.RowEQ:
		return "E", r.Rhs
	default:
		return "L", r.Rhs
	}
}

func fmtNum(v float64) string {
	if math.IsInf(v, 1) {
		return strconv.FormatFloat(infinity, 'g', -1, 64)
	}
	if math.IsInf(v, -1) {
		return strconv.FormatFloat(-infinity, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadModel parses the free-MPS dialect WriteModel produces.
func (Codec) ReadModel(r io.Reader) (*model.Model, error) {
	p := &parser{m: model.New(0, 0), rowKind: make(map[string]model.RowType)}
	sc := bufio.NewScanner(r)
	section := ""
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(raw, " ") && !strings.HasPrefix(raw, "\t") {
			// A section header or NAME line, not an indented data line.
			fields := strings.Fields(trimmed)
			switch fields[0] {
			case "NAME":
				if len(fields) > 1 {
					p.m.Name = fields[1]
				}
				continue
			case "ENDATA":
				return p.m, nil
			default:
				section = fields[0]
				continue
			}
		}
		fields := strings.Fields(trimmed)
		var err error
		switch section {
		case "ROWS":
			err = p.row(fields)
		case "COLUMNS":
			err = p.column(fields)
		case "RHS":
			err = p.rhs(fields)
		case "RANGES":
			err = p.ranges(fields)
		case "BOUNDS":
			err = p.bound(fields)
		default:
			err = fmt.Errorf("data line outside any section")
		}
		if err != nil {
			return nil, fmt.Errorf("mpsformat: line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p.m, nil
}

type parser struct {
	m       *model.Model
	rowKind map[string]model.RowType
	inInt   bool
}

func (p *parser) row(fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("malformed ROWS line %q", fields)
	}
	kind, name := fields[0], fields[1]
	if kind == "N" {
		return nil // the objective row; tracked separately via COLUMNS' OBJ
	}
	var rt model.RowType
	switch kind {
	case "L":
		rt = model.RowLE
	case "G":
		rt = model.RowGE
	case "E":
		rt = model.RowEQ
	default:
		return fmt.Errorf("unknown row type %q", kind)
	}
	if _, err := p.m.AddConstraint(name, nil, nil, rt, 0); err != nil {
		return err
	}
	p.rowKind[name] = rt
	return nil
}

func (p *parser) column(fields []string) error {
	if len(fields) == 2 && fields[1] == "INTORG" {
		p.inInt = true
		return nil
	}
	if len(fields) == 2 && fields[1] == "INTEND" {
		p.inInt = false
		return nil
	}
	if len(fields) < 3 || len(fields)%2 != 1 {
		return fmt.Errorf("malformed COLUMNS line %q", fields)
	}
	name := fields[0]
	j, ok := p.m.ColumnIndex(name)
	if !ok {
		var err error
		j, err = p.m.AddColumn(name, 0, nil, nil)
		if err != nil {
			return err
		}
		if p.inInt {
			p.m.Vars[j].Kind = model.Integer
		}
	}
	for k := 1; k+1 < len(fields); k += 2 {
		rowName, valStr := fields[k], fields[k+1]
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return err
		}
		if rowName == "OBJ" {
			if err := p.m.SetObj(j, val); err != nil {
				return err
			}
			continue
		}
		i, ok := p.m.RowIndex(rowName)
		if !ok {
			return fmt.Errorf("unknown row %q", rowName)
		}
		if err := p.m.SetElement(i, j, val); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) rhs(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("malformed RHS line %q", fields)
	}
	rowName, valStr := fields[1], fields[2]
	v, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return err
	}
	i, ok := p.m.RowIndex(rowName)
	if !ok {
		return fmt.Errorf("unknown row %q", rowName)
	}
	switch p.rowKind[rowName] {
	case model.RowLE:
		return p.m.SetRowSides(i, math.Inf(-1), v)
	case model.RowGE:
		return p.m.SetRowSides(i, v, math.Inf(1))
	case model.RowEQ:
		return p.m.SetRowSides(i, v, v)
	}
	return nil
}

func (p *parser) ranges(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("malformed RANGES line %q", fields)
	}
	rowName, valStr := fields[1], fields[2]
	width, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return err
	}
	i, ok := p.m.RowIndex(rowName)
	if !ok {
		return fmt.Errorf("unknown row %q", rowName)
	}
	row := p.m.Rows[i]
	switch p.rowKind[rowName] {
	case model.RowLE:
		return p.m.SetRowSides(i, row.Rhs-math.Abs(width), row.Rhs)
	case model.RowGE:
		return p.m.SetRowSides(i, row.Lhs, row.Lhs+math.Abs(width))
	case model.RowEQ:
		if width >= 0 {
			return p.m.SetRowSides(i, row.Rhs, row.Rhs+width)
		}
		return p.m.SetRowSides(i, row.Rhs+width, row.Rhs)
	}
	return nil
}

func (p *parser) bound(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("malformed BOUNDS line %q", fields)
	}
	kind, colName := fields[0], fields[2]
	j, ok := p.m.ColumnIndex(colName)
	if !ok {
		return fmt.Errorf("unknown column %q", colName)
	}
	v := p.m.Vars[j]
	switch kind {
	case "FR":
		return p.m.SetBounds(j, math.Inf(-1), math.Inf(1))
	case "BV":
		p.m.Vars[j].Kind = model.Binary
		return p.m.SetBounds(j, 0, 1)
	case "FX":
		val, err := parseBoundVal(fields)
		if err != nil {
			return err
		}
		return p.m.SetBounds(j, val, val)
	case "LO":
		val, err := parseBoundVal(fields)
		if err != nil {
			return err
		}
		return p.m.SetBounds(j, clampInf(val), v.Upper)
	case "UP":
		val, err := parseBoundVal(fields)
		if err != nil {
			return err
		}
		return p.m.SetBounds(j, v.Lower, clampInf(val))
	default:
		return fmt.Errorf("unknown bound type %q", kind)
	}
}

func parseBoundVal(fields []string) (float64, error) {
	if len(fields) < 4 {
		return 0, fmt.Errorf("missing bound value in %q", fields)
	}
	return strconv.ParseFloat(fields[3], 64)
}

func clampInf(v float64) float64 {
	if v >= infinity {
		return math.Inf(1)
	}
	if v <= -infinity {
		return math.Inf(-1)
	}
	return v
}
