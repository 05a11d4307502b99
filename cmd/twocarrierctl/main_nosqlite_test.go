//go:build !sqlite

package main

import (
	"context"
	"strings"
	"testing"
)

func TestSQLiteStoreRejectedWithoutBuildTag(t *testing.T) {
	captureStdout(t)
	err := run(context.Background(), []string{"init", "--config-dir", t.TempDir(), "--store", "sqlite"})
	if err == nil || !strings.Contains(err.Error(), "-tags sqlite") {
		t.Fatalf("expected sqlite build error, got %v", err)
	}
}
