package client

import "github.com/satishbabariya/staticsql/runtime/types"

// Param describes a named parameter of a statement.
type Param struct {
	// Name is the hint-free name of the generated argument.
	Name string
	// BindName is the placeholder without its prefix character.
	BindName    string
	Type        types.StorageType
	Nullability types.Nullability
}

// Column describes a result column of a statement.
type Column struct {
	Name        string
	Type        types.StorageType
	Nullability types.Nullability
	// Verified is false when the type could not be tied to the schema.
	Verified bool
}

// Statement is the static description of a generated query.
type Statement struct {
	Name    string
	SQL     string
	Shape   types.Shape
	Params  []Param
	Columns []Column
}

func (s *Statement) columnName(i int) string {
	if i >= 0 && i < len(s.Columns) {
		return s.Columns[i].Name
	}
	return ""
}
