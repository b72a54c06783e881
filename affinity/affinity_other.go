//go:build !linux
// +build !linux

// File: affinity/affinity_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import (
	"errors"

	"github.com/momentics/hioload-chat/api"
)

func setAffinityPlatform(int) error {
	return errors.Join(errors.New("affinity: not supported on this platform"), api.ErrNotSupported)
}

func saveAffinityPlatform() (func(), error) {
	return nil, api.ErrNotSupported
}
