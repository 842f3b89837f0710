package app

import (
	"os"
	"sync"
)

// TestModeEnv names the variable that makes binaries skip runtime startup.
const TestModeEnv = "CATALOG_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	return testMode()
}
