//go:build !sqlite

package storage

import "fmt"

// SQLiteAvailable reports whether this build carries the sqlite backend.
const SQLiteAvailable = false

func newSQLiteStore(_ string) (Store, error) {
	return nil, fmt.Errorf("sqlite backend unavailable in this build; rebuild with -tags sqlite")
}
