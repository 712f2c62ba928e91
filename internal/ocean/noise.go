package ocean

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
)

// NoiseChannels is the number of standard-normal grids a spectrum consumes.
const NoiseChannels = 4

// NoiseSource supplies size x size grids of i.i.d. standard-normal samples.
// The same (size, channel) must always return the same grid.
type NoiseSource interface {
	Noise(size, channel int) ([]float32, error)
}

type noiseKey struct{ size, channel int }

// GaussianNoise generates seeded Gaussian grids, caches them in memory and,
// when Dir is set, persists them as little-endian float32 files so later runs
// reuse identical noise.
type GaussianNoise struct {
	Seed uint64
	Dir  string

	mu    sync.Mutex
	cache map[noiseKey][]float32
}

// NewGaussianNoise returns a source seeded with seed. dir may be empty.
func NewGaussianNoise(seed uint64, dir string) *GaussianNoise {
	return &GaussianNoise{Seed: seed, Dir: dir, cache: make(map[noiseKey][]float32)}
}

// Noise implements NoiseSource. Callers must not modify the returned slice.
func (g *GaussianNoise) Noise(size, channel int) ([]float32, error) {
	if size <= 0 || channel < 0 {
		return nil, fmt.Errorf("%w: noise grid %dx%d channel %d", ErrMissingInput, size, size, channel)
	}
	key := noiseKey{size: size, channel: channel}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cache == nil {
		g.cache = make(map[noiseKey][]float32)
	}
	if grid, ok := g.cache[key]; ok {
		return grid, nil
	}
	if g.Dir != "" {
		grid, err := readNoiseFile(g.path(key), size*size)
		if err != nil {
			return nil, err
		}
		if grid != nil {
			g.cache[key] = grid
			return grid, nil
		}
	}
	grid := generateNoise(g.Seed, size, channel)
	if g.Dir != "" {
		if err := writeNoiseFile(g.path(key), grid); err != nil {
			return nil, err
		}
	}
	g.cache[key] = grid
	return grid, nil
}

func (g *GaussianNoise) path(key noiseKey) string {
	return filepath.Join(g.Dir, fmt.Sprintf("gaussian_noise_%dx%d_%d.f32", key.size, key.size, key.channel))
}

// generateNoise draws Box-Muller samples from a PCG stream keyed by seed,
// size and channel.
func generateNoise(seed uint64, size, channel int) []float32 {
	r := rand.New(rand.NewPCG(seed, uint64(size)<<8|uint64(channel)))
	grid := make([]float32, size*size)
	for i := range grid {
		u1 := r.Float64()
		u2 := 1 - r.Float64()
		grid[i] = float32(math.Cos(2*math.Pi*u1) * math.Sqrt(-2*math.Log(u2)))
	}
	return grid
}

// readNoiseFile returns nil without error when the file is absent or has the
// wrong length, so the grid is regenerated.
func readNoiseFile(path string, samples int) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading noise %q: %v", ErrMissingInput, path, err)
	}
	if len(raw) != samples*4 {
		return nil, nil
	}
	grid := make([]float32, samples)
	for i := range grid {
		grid[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return grid, nil
}

func writeNoiseFile(path string, grid []float32) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating noise directory: %w", err)
	}
	raw := make([]byte, len(grid)*4)
	for i, v := range grid {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing noise %q: %w", path, err)
	}
	return nil
}

// loadNoise fetches the four grids for size n.
func loadNoise(src NoiseSource, n int) ([NoiseChannels][]float32, error) {
	var grids [NoiseChannels][]float32
	if src == nil {
		return grids, fmt.Errorf("%w: no noise source", ErrMissingInput)
	}
	for c := range grids {
		grid, err := src.Noise(n, c)
		if err != nil {
			if errors.Is(err, ErrMissingInput) {
				return grids, err
			}
			return grids, fmt.Errorf("%w: noise channel %d: %v", ErrMissingInput, c, err)
		}
		if len(grid) != n*n {
			return grids, fmt.Errorf("%w: noise channel %d has %d samples, want %d", ErrMissingInput, c, len(grid), n*n)
		}
		grids[c] = grid
	}
	return grids, nil
}
