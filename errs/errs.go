// Package errs holds the error sentinels shared by the simulator packages.
package errs

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks an invalid parameter. It is always detected before
// any round is simulated and aborts the run.
var ErrConfiguration = errors.New("configuration error")

// Configf returns an error wrapping ErrConfiguration.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
