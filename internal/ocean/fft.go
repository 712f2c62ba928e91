package ocean

import "fmt"

// Direction selects the sign of the twiddle exponent.
type Direction int

const (
	// Inverse uses e^{+2πik/N}; the surface pipeline always runs inverse.
	Inverse Direction = iota
	// Forward uses e^{-2πik/N}.
	Forward
)

type axis int

const (
	horizontal axis = iota
	vertical
)

// transformer is a 2D FFT implementation. Transform2D copies src into buffer
// 0 of pp, runs the row stages then the column stages, copies the result to
// dst when dst is non-nil, and returns the index of the pp buffer holding the
// result. No normalisation is applied.
type transformer interface {
	Transform2D(src *ComplexField, pp *PingPong, dst *ComplexField, dir Direction) (int, error)
	DeviceName() string
	Close()
}

// FFT is the CPU radix-2 engine. It is safe for concurrent use as long as
// every call uses its own PingPong.
type FFT struct {
	table *ButterflyTable
	d     *dispatcher
}

// NewFFT returns an engine for the table's resolution. workers <= 0 uses one
// goroutine per CPU.
func NewFFT(table *ButterflyTable, workers int) (*FFT, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &FFT{table: table, d: newDispatcher(workers)}, nil
}

// N reports the engine resolution.
func (f *FFT) N() int { return f.table.N }

// Inverse2D is Transform2D with the inverse direction.
func (f *FFT) Inverse2D(src *ComplexField, pp *PingPong, dst *ComplexField) (int, error) {
	return f.Transform2D(src, pp, dst, Inverse)
}

// Forward2D is Transform2D with the forward direction.
func (f *FFT) Forward2D(src *ComplexField, pp *PingPong, dst *ComplexField) (int, error) {
	return f.Transform2D(src, pp, dst, Forward)
}

// Transform2D implements transformer.
func (f *FFT) Transform2D(src *ComplexField, pp *PingPong, dst *ComplexField, dir Direction) (int, error) {
	if err := checkTransform(f.table, src, pp, dst); err != nil {
		return 0, err
	}
	copy(pp.bufs[0].Data, src.Data)
	cur := f.pass(pp, 0, horizontal, dir)
	cur = f.pass(pp, cur, vertical, dir)
	if dst != nil {
		copy(dst.Data, pp.bufs[cur].Data)
	}
	return cur, nil
}

// pass runs every butterfly stage along one axis, starting from buffer src,
// and returns the buffer holding the output. Each stage reads one buffer and
// writes the other.
func (f *FFT) pass(pp *PingPong, src int, ax axis, dir Direction) int {
	n := f.table.N
	cur := src & 1
	for s := 0; s < f.table.Stages; s++ {
		in := pp.bufs[cur].Data
		out := pp.bufs[cur^1].Data
		stage := f.table.Stage(s)
		inverse := dir == Inverse
		f.d.run(n, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				row := y * n
				if ax == horizontal {
					for x, e := range stage {
						w := e.Twiddle
						if inverse {
							w = complex(real(w), -imag(w))
						}
						out[row+x] = in[row+int(e.A)] + w*in[row+int(e.B)]
					}
					continue
				}
				e := stage[y]
				w := e.Twiddle
				if inverse {
					w = complex(real(w), -imag(w))
				}
				a := int(e.A) * n
				b := int(e.B) * n
				for x := 0; x < n; x++ {
					out[row+x] = in[a+x] + w*in[b+x]
				}
			}
		})
		cur ^= 1
	}
	return cur
}

func (f *FFT) DeviceName() string { return BackendCPU }

func (f *FFT) Close() {}

func checkTransform(table *ButterflyTable, src *ComplexField, pp *PingPong, dst *ComplexField) error {
	if table == nil {
		return fmt.Errorf("%w: nil butterfly table", ErrInvalidConfiguration)
	}
	n := table.N
	if err := src.check(n, "fft input"); err != nil {
		return err
	}
	if pp == nil || pp.N() != n {
		return fmt.Errorf("%w: ping-pong pair does not match resolution %d", ErrInvalidConfiguration, n)
	}
	if dst != nil {
		if err := dst.check(n, "fft output"); err != nil {
			return err
		}
		if dst == pp.bufs[0] || dst == pp.bufs[1] {
			return fmt.Errorf("%w: fft output aliases a ping-pong buffer", ErrInvalidConfiguration)
		}
	}
	return nil
}
