package frame

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from a frame.
type SchemaError struct {
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// AmbiguousJoinError reports a join key that matches more than one row on
// the historical side. Joining anyway would duplicate current rows and
// inflate every downstream sum.
type AmbiguousJoinError struct {
	Keys  []string
	Key   string
	Count int
}

func (e *AmbiguousJoinError) Error() string {
	return fmt.Sprintf("ambiguous join on (%s): key %q matches %d historical rows",
		strings.Join(e.Keys, ", "), e.Key, e.Count)
}
