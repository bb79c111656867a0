package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// FoldFunc is the SQL name of the Unicode case-fold function available on
// every connection. SQLite's own LOWER and NOCASE only fold ASCII, so name
// comparisons use fold(column) against a Fold-ed argument.
const FoldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldSQL)
}

// Fold returns the case-folded form used for name matching.
func Fold(s string) string {
	return strings.ToLower(s)
}

func foldSQL(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return v, nil
	}
}
