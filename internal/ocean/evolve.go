package ocean

import (
	"fmt"
	"math"
)

// Evolve advances h0 to time t and writes the vertical spectrum into dy and
// the two horizontal spectra into dx and dz.
func Evolve(h0 *Spectrum, patchLength, gravity, t float64, dy, dx, dz *ComplexField) error {
	return evolve(newDispatcher(0), h0, patchLength, gravity, t, dy, dx, dz)
}

func evolve(d *dispatcher, h0 *Spectrum, patchLength, gravity, t float64, dy, dx, dz *ComplexField) error {
	if h0 == nil {
		return fmt.Errorf("%w: nil spectrum", ErrInvalidConfiguration)
	}
	n := h0.N
	if err := h0.check(n); err != nil {
		return err
	}
	for _, f := range []struct {
		field *ComplexField
		label string
	}{{dy, "dy"}, {dx, "dx"}, {dz, "dz"}} {
		if err := f.field.check(n, f.label); err != nil {
			return err
		}
	}
	if !(patchLength > 0) || !(gravity > 0) {
		return fmt.Errorf("%w: patch length %v and gravity %v must be positive", ErrInvalidConfiguration, patchLength, gravity)
	}

	d.run(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				idx := y*n + x
				kx, kz := waveVector(x, y, n, patchLength)
				k := math.Hypot(kx, kz)
				omega := math.Sqrt(gravity*k) * t
				c, s := math.Cos(omega), math.Sin(omega)

				hk := h0.K.Data[idx]
				hmk := h0.MinusK.Data[idx]
				ar, ai := float64(real(hk)), float64(imag(hk))
				// conj(h0(-k))
				br, bi := float64(real(hmk)), -float64(imag(hmk))

				// h0(k)*e^{iwt} + conj(h0(-k))*e^{-iwt}
				hr := ar*c - ai*s + br*c + bi*s
				hi := ar*s + ai*c - br*s + bi*c
				dy.Data[idx] = complex(float32(hr), float32(hi))

				if k < dcEpsilon {
					dx.Data[idx] = 0
					dz.Data[idx] = 0
					continue
				}
				// i*(k/|k|)*h
				ux, uz := kx/k, kz/k
				dx.Data[idx] = complex(float32(-ux*hi), float32(ux*hr))
				dz.Data[idx] = complex(float32(-uz*hi), float32(uz*hr))
			}
		}
	})
	return nil
}
