package ocean

import (
	"fmt"
	"math"
	"math/cmplx"
)

// SpectrumParams are the physical inputs of the base spectrum.
type SpectrumParams struct {
	PatchLength   float64
	Amplitude     float64
	Gravity       float64
	WindSpeed     float64
	WindDirection [2]float64
}

func (p SpectrumParams) validate() error {
	if !(p.PatchLength > 0) || math.IsInf(p.PatchLength, 0) {
		return fmt.Errorf("%w: patch length %v must be positive", ErrInvalidConfiguration, p.PatchLength)
	}
	if !(p.Gravity > 0) || math.IsInf(p.Gravity, 0) {
		return fmt.Errorf("%w: gravity %v must be positive", ErrInvalidConfiguration, p.Gravity)
	}
	if !(p.Amplitude >= 0) || math.IsInf(p.Amplitude, 0) {
		return fmt.Errorf("%w: amplitude %v must be finite and non-negative", ErrInvalidConfiguration, p.Amplitude)
	}
	if !(p.WindSpeed > 0) || math.IsInf(p.WindSpeed, 0) {
		return fmt.Errorf("%w: wind speed %v must be positive", ErrInvalidConfiguration, p.WindSpeed)
	}
	wx, wz := p.WindDirection[0], p.WindDirection[1]
	l := math.Hypot(wx, wz)
	if !(l > 0) || math.IsInf(l, 0) {
		return fmt.Errorf("%w: wind direction (%v, %v) must be a finite non-zero vector", ErrInvalidConfiguration, wx, wz)
	}
	return nil
}

// Spectrum is the time-invariant base spectrum. K holds h0(k) and MinusK holds
// h0(-k) at the same cell, so time evolution never reads a neighbour.
type Spectrum struct {
	N      int
	K      *ComplexField
	MinusK *ComplexField
}

// NewSpectrum allocates an empty spectrum of side n.
func NewSpectrum(n int) *Spectrum {
	return &Spectrum{N: n, K: NewComplexField(n), MinusK: NewComplexField(n)}
}

func (s *Spectrum) check(n int) error {
	if s == nil {
		return fmt.Errorf("%w: nil spectrum", ErrInvalidConfiguration)
	}
	if err := s.K.check(n, "h0"); err != nil {
		return err
	}
	return s.MinusK.check(n, "h0(-k)")
}

// waveVector maps grid cell (x, y) to its wavevector. The grid is centred, so
// (n/2, n/2) is k = 0.
func waveVector(x, y, n int, patchLength float64) (float64, float64) {
	scale := 2 * math.Pi / patchLength
	return float64(x-n/2) * scale, float64(y-n/2) * scale
}

// mirror returns the cell holding -k for cell (x, y).
func mirror(x, y, n int) (int, int) {
	return (n - x) % n, (n - y) % n
}

// phillips evaluates the directional spectral density at k. It is zero at DC.
func phillips(kx, kz float64, p SpectrumParams) float64 {
	k2 := kx*kx + kz*kz
	if k2 < dcEpsilon*dcEpsilon {
		return 0
	}
	largest := p.WindSpeed * p.WindSpeed / p.Gravity
	damping := p.PatchLength / smallWaveFactor
	wl := math.Hypot(p.WindDirection[0], p.WindDirection[1])
	align := (kx*p.WindDirection[0] + kz*p.WindDirection[1]) / (math.Sqrt(k2) * wl)
	return p.Amplitude / (k2 * k2) * align * align *
		math.Exp(-1/(k2*largest*largest)) *
		math.Exp(-k2*damping*damping)
}

// SynthesizeSpectrum builds h0 for an n x n grid from four standard-normal
// grids: noise[0]/noise[1] are the real/imaginary parts of the first pair,
// noise[2]/noise[3] of the second.
func SynthesizeSpectrum(n int, p SpectrumParams, noise [4][]float32) (*Spectrum, error) {
	out := NewSpectrum(n)
	if err := synthesize(newDispatcher(0), p, noise, NewSpectrum(n), out); err != nil {
		return nil, err
	}
	return out, nil
}

// synthesize writes the raw draws of both noise pairs into scratch, then
// combines each cell with the conjugate of its mirror's second draw so that
// h0(-k) equals the mirror of h0(k) and the inverse transform is real.
func synthesize(d *dispatcher, p SpectrumParams, noise [4][]float32, scratch, out *Spectrum) error {
	n := out.N
	if !isPowerOfTwo(n) {
		return fmt.Errorf("%w: resolution %d is not a power of two", ErrInvalidConfiguration, n)
	}
	if err := p.validate(); err != nil {
		return err
	}
	if err := out.check(n); err != nil {
		return err
	}
	if err := scratch.check(n); err != nil {
		return err
	}
	for c, grid := range noise {
		if len(grid) != n*n {
			return fmt.Errorf("%w: noise channel %d has %d samples, want %d", ErrMissingInput, c, len(grid), n*n)
		}
	}

	d.run(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				idx := y*n + x
				kx, kz := waveVector(x, y, n, p.PatchLength)
				ampK := math.Sqrt(phillips(kx, kz, p) / 2)
				ampMinusK := math.Sqrt(phillips(-kx, -kz, p) / 2)
				first := complex(float64(noise[0][idx]), float64(noise[1][idx]))
				second := complex(float64(noise[2][idx]), float64(noise[3][idx]))
				scratch.K.Data[idx] = complex64(first * complex(ampK, 0))
				scratch.MinusK.Data[idx] = complex64(second * complex(ampMinusK, 0))
			}
		}
	})

	d.run(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				mx, my := mirror(x, y, n)
				a := complex128(scratch.K.Data[y*n+x])
				b := complex128(scratch.MinusK.Data[my*n+mx])
				out.K.Data[y*n+x] = complex64((a + cmplx.Conj(b)) / math.Sqrt2)
			}
		}
	})

	d.run(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				mx, my := mirror(x, y, n)
				out.MinusK.Data[y*n+x] = out.K.Data[my*n+mx]
			}
		}
	})
	return nil
}
