package ocean

import (
	"fmt"
	"math"
)

// Resolution bounds accepted by New. The butterfly builder itself accepts any
// power of two.
const (
	MinResolution = 4
	MaxResolution = 4096
)

const (
	// BackendCPU runs every stage on goroutines.
	BackendCPU = "cpu"
	// BackendOpenCL runs the butterfly stages on an OpenCL device.
	BackendOpenCL = "opencl"
)

const (
	// dcEpsilon is the wavevector length below which a cell is treated as DC.
	dcEpsilon = 1e-6
	// smallWaveFactor sets the damping length l = L / smallWaveFactor.
	smallWaveFactor = 2000.0
)

// Config holds the parameters of one Simulator instance. Resolution,
// PatchLength and Gravity are fixed for the lifetime of the instance; wind and
// amplitude may be replaced between ticks.
type Config struct {
	Resolution    int
	PatchLength   float64
	Amplitude     float64
	Gravity       float64
	WindSpeed     float64
	WindDirection [2]float64
	Choppiness    float64
	Workers       int
	Backend       string
}

// DefaultConfig returns a 256x256 ocean patch driven by a moderate wind.
func DefaultConfig() Config {
	return Config{
		Resolution:    256,
		PatchLength:   1000,
		Amplitude:     4,
		Gravity:       9.81,
		WindSpeed:     40,
		WindDirection: [2]float64{1, 0},
		Choppiness:    1,
		Backend:       BackendCPU,
	}
}

// Validate checks every field and reports ErrInvalidConfiguration for the
// first offending value.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.Resolution) || c.Resolution < MinResolution || c.Resolution > MaxResolution {
		return fmt.Errorf("%w: resolution %d must be a power of two in [%d, %d]",
			ErrInvalidConfiguration, c.Resolution, MinResolution, MaxResolution)
	}
	if !(c.PatchLength > 0) || math.IsInf(c.PatchLength, 0) {
		return fmt.Errorf("%w: patch length %v must be positive", ErrInvalidConfiguration, c.PatchLength)
	}
	if !(c.Gravity > 0) || math.IsInf(c.Gravity, 0) {
		return fmt.Errorf("%w: gravity %v must be positive", ErrInvalidConfiguration, c.Gravity)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidConfiguration, c.Workers)
	}
	if c.Choppiness < 0 || math.IsNaN(c.Choppiness) {
		return fmt.Errorf("%w: choppiness %v must not be negative", ErrInvalidConfiguration, c.Choppiness)
	}
	switch c.Backend {
	case "", BackendCPU, BackendOpenCL:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfiguration, c.Backend)
	}
	return c.spectrumParams().validate()
}

func (c Config) spectrumParams() SpectrumParams {
	return SpectrumParams{
		PatchLength:   c.PatchLength,
		Amplitude:     c.Amplitude,
		Gravity:       c.Gravity,
		WindSpeed:     c.WindSpeed,
		WindDirection: c.WindDirection,
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// log2 returns the stage count for a power-of-two n.
func log2(n int) int {
	stages := 0
	for v := n; v > 1; v >>= 1 {
		stages++
	}
	return stages
}
