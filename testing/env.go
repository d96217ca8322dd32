// Package testing puts the process in test mode when blank-imported from a
// _test.go file, before any test or init in the importing package reads the environment.
package testing

import (
	"os"

	"github.com/venuedesk/venuedesk/internal/app"
)

func init() {
	if _, ok := os.LookupEnv(app.TestModeEnv); !ok {
		_ = os.Setenv(app.TestModeEnv, "true")
	}
}
