// Package guard forces test mode when imported from test files, so
// binaries guarded by the runtime flag refuse to start mid-test run.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MERIDIAN_TEST_MODE") == "" {
			_ = os.Setenv("MERIDIAN_TEST_MODE", "1")
		}
	})
}
