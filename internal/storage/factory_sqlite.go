//go:build sqlite

package storage

// SQLiteAvailable reports whether this build carries the sqlite backend.
const SQLiteAvailable = true

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
