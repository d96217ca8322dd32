package app

import (
	"os"
	"strconv"
	"sync"
)

// TestModeEnv names the variable that stops the binaries from opening
// listeners and connections, so packages importing them stay inert under go test.
const TestModeEnv = "VENUEDESK_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return parseTestMode(os.Getenv(TestModeEnv))
})

func parseTestMode(value string) bool {
	enabled, err := strconv.ParseBool(value)
	return err == nil && enabled
}

// InTestMode reports whether the application should skip runtime side effects.
// The variable is read once per process.
func InTestMode() bool {
	return testMode()
}
