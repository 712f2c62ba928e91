package ocean

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// FinalPass turns one unnormalised inverse-FFT result into a scalar
// displacement channel: dst = (-1)^(x+y) * Re(src) / N². The checkerboard
// undoes the half-grid frequency shift of the centred spectrum.
func FinalPass(src *ComplexField, dst []float32) error {
	return finalPass(newDispatcher(0), src, dst)
}

func finalPass(d *dispatcher, src *ComplexField, dst []float32) error {
	if src == nil {
		return fmt.Errorf("%w: nil final pass input", ErrInvalidConfiguration)
	}
	n := src.N
	if err := src.check(n, "final pass input"); err != nil {
		return err
	}
	if len(dst) != n*n {
		return fmt.Errorf("%w: final pass output has %d values, want %d", ErrInvalidConfiguration, len(dst), n*n)
	}
	scale := 1 / float32(n*n)
	d.run(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < n; x++ {
				idx := y*n + x
				v := real(src.Data[idx]) * scale
				if (x+y)&1 == 1 {
					v = -v
				}
				dst[idx] = v
			}
		}
	})
	return nil
}

// Merge packs the three corrected channels into out. Horizontal offsets are
// multiplied by choppiness.
func Merge(dy, dx, dz []float32, choppiness float32, out *DisplacementField) error {
	if out == nil {
		return fmt.Errorf("%w: nil displacement field", ErrInvalidConfiguration)
	}
	size := out.N * out.N
	if len(out.Data) != size || len(dy) != size || len(dx) != size || len(dz) != size {
		return fmt.Errorf("%w: merge inputs (%d, %d, %d) do not match displacement field of %d",
			ErrInvalidConfiguration, len(dy), len(dx), len(dz), size)
	}
	for i := range out.Data {
		out.Data[i] = mgl32.Vec3{dx[i] * choppiness, dy[i], dz[i] * choppiness}
	}
	return nil
}
