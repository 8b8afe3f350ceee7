//go:build !integration

package layoutshot

import (
	"testing"

	"go.uber.org/goleak"
)

// Runs against the stub backend must not leave goroutines behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
