package ocean

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ComplexField stores an N x N grid of complex values in row-major order. The
// real and imaginary parts sit next to each other in memory, which is the
// layout the OpenCL kernels read as float2.
type ComplexField struct {
	N    int
	Data []complex64
}

// NewComplexField allocates a zeroed field of side n.
func NewComplexField(n int) *ComplexField {
	return &ComplexField{N: n, Data: make([]complex64, n*n)}
}

// At returns the value at column x, row y.
func (f *ComplexField) At(x, y int) complex64 {
	return f.Data[y*f.N+x]
}

// Set writes the value at column x, row y.
func (f *ComplexField) Set(x, y int, v complex64) {
	f.Data[y*f.N+x] = v
}

// CopyFrom overwrites f with src. Both fields must share the same side.
func (f *ComplexField) CopyFrom(src *ComplexField) error {
	if err := sameSize(f, src); err != nil {
		return err
	}
	copy(f.Data, src.Data)
	return nil
}

func (f *ComplexField) check(n int, label string) error {
	if f == nil {
		return fmt.Errorf("%w: %s field is nil", ErrInvalidConfiguration, label)
	}
	if f.N != n || len(f.Data) != n*n {
		return fmt.Errorf("%w: %s field is %d (%d values), want %d", ErrInvalidConfiguration, label, f.N, len(f.Data), n)
	}
	return nil
}

func sameSize(a, b *ComplexField) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: nil field", ErrInvalidConfiguration)
	}
	if a.N != b.N || len(a.Data) != len(b.Data) {
		return fmt.Errorf("%w: field sizes differ (%d vs %d)", ErrInvalidConfiguration, a.N, b.N)
	}
	return nil
}

// PingPong is the buffer pair an FFT alternates between. One pair must not be
// shared by two transforms running at the same time.
type PingPong struct {
	bufs [2]*ComplexField
}

// NewPingPong allocates both buffers of side n.
func NewPingPong(n int) *PingPong {
	return &PingPong{bufs: [2]*ComplexField{NewComplexField(n), NewComplexField(n)}}
}

// Buffer returns buffer 0 or 1.
func (p *PingPong) Buffer(i int) *ComplexField {
	return p.bufs[i&1]
}

// N reports the side of the pair, or 0 if the buffers disagree.
func (p *PingPong) N() int {
	if p == nil || p.bufs[0] == nil || p.bufs[1] == nil {
		return 0
	}
	if sameSize(p.bufs[0], p.bufs[1]) != nil {
		return 0
	}
	return p.bufs[0].N
}

// DisplacementField holds the surface offset of every texel: X and Z are the
// horizontal offsets, Y is the height.
type DisplacementField struct {
	N    int
	Data []mgl32.Vec3
}

// NewDisplacementField allocates a zeroed field of side n.
func NewDisplacementField(n int) *DisplacementField {
	return &DisplacementField{N: n, Data: make([]mgl32.Vec3, n*n)}
}

// At returns the displacement at (x, y), wrapping coordinates outside the
// patch since the surface tiles.
func (f *DisplacementField) At(x, y int) mgl32.Vec3 {
	return f.Data[wrap(y, f.N)*f.N+wrap(x, f.N)]
}

// Heights copies the vertical channel into dst, growing it if needed.
func (f *DisplacementField) Heights(dst []float64) []float64 {
	if cap(dst) < len(f.Data) {
		dst = make([]float64, len(f.Data))
	}
	dst = dst[:len(f.Data)]
	for i, v := range f.Data {
		dst[i] = float64(v.Y())
	}
	return dst
}

// NormalField holds one unit normal per texel.
type NormalField struct {
	N    int
	Data []mgl32.Vec3
}

// NewNormalField allocates a field of side n with every normal pointing up.
func NewNormalField(n int) *NormalField {
	f := &NormalField{N: n, Data: make([]mgl32.Vec3, n*n)}
	for i := range f.Data {
		f.Data[i] = mgl32.Vec3{0, 1, 0}
	}
	return f
}

// At returns the normal at (x, y) with periodic wraparound.
func (f *NormalField) At(x, y int) mgl32.Vec3 {
	return f.Data[wrap(y, f.N)*f.N+wrap(x, f.N)]
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
