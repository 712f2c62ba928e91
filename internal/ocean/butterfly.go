package ocean

import (
	"fmt"
	"math"
	"sync"
)

// ButterflyEntry describes one output element of one butterfly stage: the
// result is src[A] + w*src[B], where w is Twiddle for a forward transform and
// its conjugate for an inverse one.
type ButterflyEntry struct {
	Twiddle complex64
	A, B    int32
}

// ButterflyTable is the per-resolution lookup consumed by every FFT against
// that resolution. It is immutable once built.
type ButterflyTable struct {
	N           int
	Stages      int
	BitReversed []int
	entries     []ButterflyEntry
}

// BitReverse returns the bit-reversal permutation of 0..n-1 over log2(n) bits.
func BitReverse(n int) ([]int, error) {
	if !isPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: resolution %d is not a power of two", ErrInvalidConfiguration, n)
	}
	bits := log2(n)
	rev := make([]int, n)
	for i := range rev {
		r := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				r |= 1 << (bits - 1 - b)
			}
		}
		rev[i] = r
	}
	return rev, nil
}

// NewButterflyTable builds the radix-2 decimation-in-time table for n.
func NewButterflyTable(n int) (*ButterflyTable, error) {
	rev, err := BitReverse(n)
	if err != nil {
		return nil, err
	}
	stages := log2(n)
	t := &ButterflyTable{
		N:           n,
		Stages:      stages,
		BitReversed: rev,
		entries:     make([]ButterflyEntry, stages*n),
	}
	for s := 0; s < stages; s++ {
		span := 1 << s
		width := span << 1
		stride := n / width
		for i := 0; i < n; i++ {
			k := (i * stride) % n
			angle := -2 * math.Pi * float64(k) / float64(n)
			top := i%width < span

			var a, b int
			switch {
			case s == 0 && top:
				a, b = rev[i], rev[i+1]
			case s == 0:
				a, b = rev[i-1], rev[i]
			case top:
				a, b = i, i+span
			default:
				a, b = i-span, i
			}
			t.entries[s*n+i] = ButterflyEntry{
				Twiddle: complex(float32(math.Cos(angle)), float32(math.Sin(angle))),
				A:       int32(a),
				B:       int32(b),
			}
		}
	}
	return t, nil
}

// At returns the entry for output index i of stage s.
func (t *ButterflyTable) At(stage, i int) ButterflyEntry {
	return t.entries[stage*t.N+i]
}

// Stage returns the entries of one stage.
func (t *ButterflyTable) Stage(stage int) []ButterflyEntry {
	return t.entries[stage*t.N : (stage+1)*t.N]
}

// Pack flattens the table into stages*n float4 texels (cos, sin, a, b), the
// layout uploaded to a GPU.
func (t *ButterflyTable) Pack() []float32 {
	out := make([]float32, 0, len(t.entries)*4)
	for _, e := range t.entries {
		out = append(out, real(e.Twiddle), imag(e.Twiddle), float32(e.A), float32(e.B))
	}
	return out
}

// Validate checks the table shape and source indices.
func (t *ButterflyTable) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil butterfly table", ErrInvalidConfiguration)
	}
	if !isPowerOfTwo(t.N) || t.Stages != log2(t.N) {
		return fmt.Errorf("%w: butterfly table for %d has %d stages", ErrInvalidConfiguration, t.N, t.Stages)
	}
	if len(t.entries) != t.N*t.Stages || len(t.BitReversed) != t.N {
		return fmt.Errorf("%w: butterfly table for %d has %d entries", ErrInvalidConfiguration, t.N, len(t.entries))
	}
	for idx, e := range t.entries {
		if e.A < 0 || int(e.A) >= t.N || e.B < 0 || int(e.B) >= t.N {
			return fmt.Errorf("%w: butterfly entry %d/%d references (%d, %d)",
				ErrInvalidConfiguration, idx/t.N, idx%t.N, e.A, e.B)
		}
	}
	return nil
}

var (
	tableMu    sync.Mutex
	tableCache = make(map[int]*ButterflyTable)
)

// ButterflyTableFor returns the shared table for n, building it on first use.
// Tables depend only on n and are never modified, so simulators of the same
// resolution share one.
func ButterflyTableFor(n int) (*ButterflyTable, error) {
	tableMu.Lock()
	defer tableMu.Unlock()
	if t, ok := tableCache[n]; ok {
		return t, nil
	}
	t, err := NewButterflyTable(n)
	if err != nil {
		return nil, err
	}
	tableCache[n] = t
	return t, nil
}
