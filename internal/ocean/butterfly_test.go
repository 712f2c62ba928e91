package ocean

import (
	"errors"
	"testing"
)

// referenceBitReverse builds the permutation recursively: the even half
// holds rev(n/2)*2 and the odd half rev(n/2)*2+1.
func referenceBitReverse(n int) []int {
	if n == 1 {
		return []int{0}
	}
	half := referenceBitReverse(n / 2)
	out := make([]int, 0, n)
	for _, v := range half {
		out = append(out, 2*v)
	}
	for _, v := range half {
		out = append(out, 2*v+1)
	}
	return out
}

func TestBitReverseEight(t *testing.T) {
	got, err := BitReverse(8)
	if err != nil {
		t.Fatalf("BitReverse(8): %v", err)
	}
	want := []int{0, 4, 2, 6, 1, 5, 3, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BitReverse(8) = %v, want %v", got, want)
		}
	}
}

// TestBitReverseMatchesReference checks bijection and the recursive
// definition for every resolution the simulator is normally run at.
func TestBitReverseMatchesReference(t *testing.T) {
	for _, n := range []int{2, 16, 128, 256, 512, 1024} {
		got, err := BitReverse(n)
		if err != nil {
			t.Fatalf("BitReverse(%d): %v", n, err)
		}
		want := referenceBitReverse(n)
		seen := make([]bool, n)
		for i, v := range got {
			if v != want[i] {
				t.Fatalf("n=%d index %d = %d, want %d", n, i, v, want[i])
			}
			if v < 0 || v >= n || seen[v] {
				t.Fatalf("n=%d value %d repeated or out of range", n, v)
			}
			seen[v] = true
		}
	}
}

func TestBitReverseKnownPrefix128(t *testing.T) {
	got, err := BitReverse(128)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 64, 32, 96, 16, 80, 48, 112, 8, 72, 40, 104, 24, 88, 56, 120, 4, 68}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("index %d = %d, want %d", i, got[i], v)
		}
	}
	if got[127] != 127 {
		t.Fatalf("last index = %d, want 127", got[127])
	}
}

func TestBitReverseRejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, -8, 3, 100, 1000} {
		if _, err := BitReverse(n); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("BitReverse(%d) error = %v, want ErrInvalidConfiguration", n, err)
		}
		if _, err := NewButterflyTable(n); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("NewButterflyTable(%d) error = %v, want ErrInvalidConfiguration", n, err)
		}
	}
}

func TestButterflyTableShape(t *testing.T) {
	table, err := NewButterflyTable(16)
	if err != nil {
		t.Fatal(err)
	}
	if table.Stages != 4 {
		t.Fatalf("stages = %d, want 4", table.Stages)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := len(table.Pack()); got != 16*4*4 {
		t.Fatalf("packed length = %d, want %d", got, 16*4*4)
	}

	// Stage 0 pairs bit-reversed neighbours with twiddles +1 / -1.
	for i := 0; i < 16; i++ {
		e := table.At(0, i)
		wantRe := float32(1)
		if i%2 == 1 {
			wantRe = -1
		}
		if real(e.Twiddle) != wantRe || abs32(imag(e.Twiddle)) > 1e-6 {
			t.Fatalf("stage 0 index %d twiddle = %v, want %v", i, e.Twiddle, wantRe)
		}
		pair := i &^ 1
		if int(e.A) != table.BitReversed[pair] || int(e.B) != table.BitReversed[pair+1] {
			t.Fatalf("stage 0 index %d sources = (%d, %d)", i, e.A, e.B)
		}
	}

	// Later stages combine i with i+span, and the bottom wing negates the
	// top wing's twiddle.
	for s := 1; s < table.Stages; s++ {
		span := 1 << s
		for i := 0; i < 16; i++ {
			e := table.At(s, i)
			if i%(2*span) >= span {
				continue
			}
			bottom := table.At(s, i+span)
			if int(e.A) != i || int(e.B) != i+span || e.A != bottom.A || e.B != bottom.B {
				t.Fatalf("stage %d index %d sources (%d, %d) / (%d, %d)", s, i, e.A, e.B, bottom.A, bottom.B)
			}
			if d := e.Twiddle + bottom.Twiddle; abs32(real(d)) > 1e-6 || abs32(imag(d)) > 1e-6 {
				t.Fatalf("stage %d index %d twiddles %v and %v are not opposite", s, i, e.Twiddle, bottom.Twiddle)
			}
		}
	}
}

func TestButterflyTableValidateRejectsBadEntry(t *testing.T) {
	table, err := NewButterflyTable(8)
	if err != nil {
		t.Fatal(err)
	}
	broken := *table
	broken.entries = append([]ButterflyEntry(nil), table.entries...)
	broken.entries[5].B = 8
	if err := broken.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Validate = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := NewFFT(&broken, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("NewFFT = %v, want ErrInvalidConfiguration", err)
	}
}

func TestButterflyTableForCaches(t *testing.T) {
	a, err := ButterflyTableFor(64)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ButterflyTableFor(64)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("ButterflyTableFor returned different tables for the same resolution")
	}
	if _, err := ButterflyTableFor(48); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("ButterflyTableFor(48) = %v, want ErrInvalidConfiguration", err)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
