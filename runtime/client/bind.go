package client

import (
	"database/sql"
	"fmt"

	"github.com/satishbabariya/staticsql/runtime/types"
)

// bindArgs converts args to the storage types of st's parameters and names
// them for binding. args are in parameter order.
func bindArgs(st *Statement, args []any) ([]any, error) {
	if len(args) != len(st.Params) {
		return nil, &BindError{
			Statement: st.Name,
			Err:       fmt.Errorf("%w: want %d, got %d", ErrArgCount, len(st.Params), len(args)),
		}
	}

	named := make([]any, len(args))
	for i, p := range st.Params {
		v, err := types.Convert(args[i], p.Type, p.Nullability)
		if err != nil {
			return nil, &BindError{Statement: st.Name, Param: p.Name, Err: err}
		}
		named[i] = sql.Named(p.BindName, v)
	}
	return named, nil
}
