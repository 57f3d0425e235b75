//go:build !linux

package executor

import (
	"context"
	"fmt"
	"runtime"
)

type unsupportedKeys struct{}

func NewMediaKeys() MediaKeys {
	return unsupportedKeys{}
}

func (unsupportedKeys) Press(context.Context, MediaKey) error {
	return fmt.Errorf("media keys are not supported on %s", runtime.GOOS)
}
