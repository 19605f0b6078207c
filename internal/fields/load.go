package fields

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/mdalton/quarry/internal/intent"
)

// Field tables are declared in CUE so an organization can keep custom
// fields next to the rest of its configuration:
//
//	field: {
//		"customer impact": {
//			ref:  "Custom.CustomerImpact"
//			kind: "enum"
//			types: ["Bug"]
//			enum: {high: 1, medium: 2, low: 3}
//		}
//	}
//
// Loaded rows layer over the built-in table: a loaded alias replaces
// the default binding for the same alias and scope.

// TableError is a field-table parse error with source position.
type TableError struct {
	Alias   string
	Message string
	Pos     token.Pos
}

func (e *TableError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: field %q: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Alias, e.Message)
	}
	return fmt.Sprintf("field %q: %s", e.Alias, e.Message)
}

// LoadFile reads a CUE field-table file and returns the built-in table
// with the file's rows layered on top.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field table: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rows, err := ParseRows(v)
	if err != nil {
		return nil, err
	}

	return NewTable(append(DefaultRows(), rows...))
}

// ParseRows extracts field-table rows from a CUE value holding a
// top-level "field" struct.
func ParseRows(v cue.Value) ([]Mapping, error) {
	fieldVal := v.LookupPath(cue.ParsePath("field"))
	if !fieldVal.Exists() {
		return nil, &TableError{Message: "no top-level \"field\" struct"}
	}

	iter, err := fieldVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rows []Mapping
	for iter.Next() {
		row, err := parseRow(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &TableError{Message: "field table declares no fields"}
	}
	return rows, nil
}

func parseRow(alias string, v cue.Value) (Mapping, error) {
	row := Mapping{Alias: alias}

	refVal := v.LookupPath(cue.ParsePath("ref"))
	if !refVal.Exists() {
		return row, &TableError{Alias: alias, Message: "ref is required", Pos: v.Pos()}
	}
	ref, err := refVal.String()
	if err != nil {
		return row, formatCUEError(err)
	}
	row.Ref = intent.FieldRef(ref)

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return row, &TableError{Alias: alias, Message: "kind is required", Pos: v.Pos()}
	}
	kind, err := kindVal.String()
	if err != nil {
		return row, formatCUEError(err)
	}
	if !kindKnown(ValueKind(kind)) {
		return row, &TableError{
			Alias:   alias,
			Message: fmt.Sprintf("unknown kind %q (want one of %v)", kind, KnownKinds),
			Pos:     kindVal.Pos(),
		}
	}
	row.Kind = ValueKind(kind)

	typesVal := v.LookupPath(cue.ParsePath("types"))
	if typesVal.Exists() {
		typeIter, err := typesVal.List()
		if err != nil {
			return row, formatCUEError(err)
		}
		for typeIter.Next() {
			name, err := typeIter.Value().String()
			if err != nil {
				return row, formatCUEError(err)
			}
			wit, ok := workItemTypeNamed(name)
			if !ok {
				return row, &TableError{
					Alias:   alias,
					Message: fmt.Sprintf("unknown work item type %q", name),
					Pos:     typeIter.Value().Pos(),
				}
			}
			row.Types = append(row.Types, wit)
		}
	}

	enumVal := v.LookupPath(cue.ParsePath("enum"))
	if enumVal.Exists() {
		enum, err := parseEnum(alias, enumVal)
		if err != nil {
			return row, err
		}
		row.Enum = enum
	}
	if row.Kind == KindEnum && len(row.Enum) == 0 {
		return row, &TableError{Alias: alias, Message: "enum kind requires enum values", Pos: v.Pos()}
	}

	return row, nil
}

// parseEnum reads enum tokens. Values may be ints or strings; anything
// else (notably floats) is rejected.
func parseEnum(alias string, v cue.Value) (map[string]intent.Literal, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	enum := make(map[string]intent.Literal)
	for iter.Next() {
		name := iter.Label()
		val := iter.Value()
		switch val.IncompleteKind() {
		case cue.IntKind:
			n, err := val.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			enum[name] = intent.Int(n)
		case cue.StringKind:
			s, err := val.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			enum[name] = intent.String(s)
		default:
			return nil, &TableError{
				Alias:   alias,
				Message: fmt.Sprintf("enum value for %q must be an int or string", name),
				Pos:     val.Pos(),
			}
		}
	}
	return enum, nil
}

func workItemTypeNamed(name string) (intent.WorkItemType, bool) {
	for _, wit := range intent.KnownTypes() {
		if string(wit) == name {
			return wit, true
		}
	}
	return "", false
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &TableError{Message: firstErr.Error(), Pos: positions[0]}
	}
	return err
}
