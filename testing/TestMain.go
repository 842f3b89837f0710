// Package testing switches binaries into test mode when imported by a test
// package, so no server, database or queue is started.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CATALOG_TEST_MODE", "1")
		if os.Getenv("ASSETS_ROOT") == "" {
			_ = os.Setenv("ASSETS_ROOT", os.TempDir())
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain runs m with test mode enabled.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
