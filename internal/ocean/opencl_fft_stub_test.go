//go:build !opencl

package ocean

import (
	"errors"
	"testing"
)

func TestOpenCLBackendUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 8
	cfg.Backend = BackendOpenCL
	if _, err := New(cfg, NewGaussianNoise(1, "")); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}
}
