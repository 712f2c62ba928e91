package ocean

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestGaussianNoiseDeterministic(t *testing.T) {
	a, err := NewGaussianNoise(42, "").Noise(32, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGaussianNoise(42, "").Noise(32, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a, b) {
		t.Fatal("same seed produced different grids")
	}
	other, err := NewGaussianNoise(43, "").Noise(32, 1)
	if err != nil {
		t.Fatal(err)
	}
	if slices.Equal(a, other) {
		t.Fatal("different seeds produced the same grid")
	}
}

func TestGaussianNoiseChannelsDiffer(t *testing.T) {
	g := NewGaussianNoise(7, "")
	grids := make([][]float32, NoiseChannels)
	for c := range grids {
		grid, err := g.Noise(16, c)
		if err != nil {
			t.Fatal(err)
		}
		if len(grid) != 16*16 {
			t.Fatalf("channel %d has %d samples", c, len(grid))
		}
		grids[c] = grid
	}
	for i := range grids {
		for j := i + 1; j < len(grids); j++ {
			if slices.Equal(grids[i], grids[j]) {
				t.Fatalf("channels %d and %d are identical", i, j)
			}
		}
	}
}

func TestGaussianNoiseCachesGrids(t *testing.T) {
	g := NewGaussianNoise(1, "")
	a, _ := g.Noise(8, 0)
	b, _ := g.Noise(8, 0)
	if &a[0] != &b[0] {
		t.Fatal("second lookup did not return the cached grid")
	}
}

func TestGaussianNoiseIsStandardNormal(t *testing.T) {
	grid, err := NewGaussianNoise(2024, "").Noise(256, 3)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]float64, len(grid))
	for i, v := range grid {
		samples[i] = float64(v)
	}
	mean, variance := stat.PopMeanVariance(samples, nil)
	if math.Abs(mean) > 0.02 {
		t.Errorf("mean = %v, want about 0", mean)
	}
	if math.Abs(variance-1) > 0.03 {
		t.Errorf("variance = %v, want about 1", variance)
	}
}

func TestGaussianNoisePersists(t *testing.T) {
	dir := t.TempDir()
	first, err := NewGaussianNoise(5, dir).Noise(16, 2)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "gaussian_noise_16x16_2.f32")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("noise file not written: %v", err)
	}
	if len(raw) != 16*16*4 {
		t.Fatalf("noise file has %d bytes", len(raw))
	}

	// A different seed must still load the stored grid.
	second, err := NewGaussianNoise(99, dir).Noise(16, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first, second) {
		t.Fatal("stored grid was not reused")
	}
}

func TestGaussianNoiseRegeneratesTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaussian_noise_8x8_0.f32")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	grid, err := NewGaussianNoise(3, dir).Noise(8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(grid, generateNoise(3, 8, 0)) {
		t.Fatal("truncated file was not replaced by generated noise")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(raw[4:])); got != grid[1] {
		t.Fatalf("rewritten sample 1 = %v, want %v", got, grid[1])
	}
}

type brokenNoise struct{ samples int }

func (b brokenNoise) Noise(size, channel int) ([]float32, error) {
	if b.samples < 0 {
		return nil, errors.New("device lost")
	}
	return make([]float32, b.samples), nil
}

func TestLoadNoiseErrors(t *testing.T) {
	for name, src := range map[string]NoiseSource{
		"nil":     nil,
		"failing": brokenNoise{samples: -1},
		"short":   brokenNoise{samples: 3},
	} {
		if _, err := loadNoise(src, 8); !errors.Is(err, ErrMissingInput) {
			t.Errorf("%s: error = %v, want ErrMissingInput", name, err)
		}
	}
	if _, err := NewGaussianNoise(1, "").Noise(0, 0); !errors.Is(err, ErrMissingInput) {
		t.Errorf("empty grid: error = %v, want ErrMissingInput", err)
	}
}
