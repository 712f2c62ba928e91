package ocean

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// EstimateNormals derives one normal per texel from central differences of
// the displaced surface. Neighbours wrap around the patch edge.
func EstimateNormals(disp *DisplacementField, patchLength float64, out *NormalField) error {
	return estimateNormals(newDispatcher(0), disp, patchLength, out)
}

func estimateNormals(d *dispatcher, disp *DisplacementField, patchLength float64, out *NormalField) error {
	if disp == nil || out == nil {
		return fmt.Errorf("%w: nil displacement or normal field", ErrInvalidConfiguration)
	}
	n := disp.N
	if len(disp.Data) != n*n || out.N != n || len(out.Data) != n*n {
		return fmt.Errorf("%w: normal field %d does not match displacement field %d", ErrInvalidConfiguration, out.N, n)
	}
	if !(patchLength > 0) {
		return fmt.Errorf("%w: patch length %v must be positive", ErrInvalidConfiguration, patchLength)
	}
	texel := float32(patchLength / float64(n))
	// Neighbours are two texels apart in the undisplaced grid.
	stepX := mgl32.Vec3{2 * texel, 0, 0}
	stepZ := mgl32.Vec3{0, 0, 2 * texel}

	d.run(n, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			up := wrap(y-1, n) * n
			down := wrap(y+1, n) * n
			row := y * n
			for x := 0; x < n; x++ {
				left := wrap(x-1, n)
				right := wrap(x+1, n)
				tx := stepX.Add(disp.Data[row+right].Sub(disp.Data[row+left]))
				tz := stepZ.Add(disp.Data[down+x].Sub(disp.Data[up+x]))
				normal := tz.Cross(tx)
				if normal.Len() == 0 {
					out.Data[row+x] = mgl32.Vec3{0, 1, 0}
					continue
				}
				out.Data[row+x] = normal.Normalize()
			}
		}
	})
	return nil
}
