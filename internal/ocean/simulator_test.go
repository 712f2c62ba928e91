package ocean

import (
	"errors"
	"math"
	"math/cmplx"
	"slices"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Resolution = 128
	cfg.PatchLength = 128
	cfg.Amplitude = 0.0005
	cfg.WindSpeed = 10
	cfg.WindDirection = [2]float64{1, 0}
	return cfg
}

func newTestSimulator(t testing.TB, cfg Config) *Simulator {
	t.Helper()
	sim, err := New(cfg, NewGaussianNoise(17, ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(sim.Close)
	return sim
}

func cloneDisp(f *DisplacementField) []mgl32.Vec3 {
	return slices.Clone(f.Data)
}

func TestNewRejectsBadConfig(t *testing.T) {
	mutations := map[string]func(*Config){
		"resolution not power of two": func(c *Config) { c.Resolution = 100 },
		"resolution too small":        func(c *Config) { c.Resolution = 2 },
		"resolution too large":        func(c *Config) { c.Resolution = 8192 },
		"zero patch":                  func(c *Config) { c.PatchLength = 0 },
		"zero wind direction":         func(c *Config) { c.WindDirection = [2]float64{} },
		"negative workers":            func(c *Config) { c.Workers = -1 },
		"negative choppiness":         func(c *Config) { c.Choppiness = -0.5 },
		"unknown backend":             func(c *Config) { c.Backend = "vulkan" },
	}
	for name, mutate := range mutations {
		cfg := smallConfig()
		mutate(&cfg)
		if _, err := New(cfg, NewGaussianNoise(1, "")); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: error = %v, want ErrInvalidConfiguration", name, err)
		}
	}
	if _, err := New(smallConfig(), nil); !errors.Is(err, ErrMissingInput) {
		t.Errorf("nil noise: error = %v, want ErrMissingInput", err)
	}
	if _, err := New(smallConfig(), brokenNoise{samples: 12}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("short noise: error = %v, want ErrMissingInput", err)
	}
}

func TestAdvanceDeterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 32
	a := newTestSimulator(t, cfg)
	cfg.Workers = 3
	b := newTestSimulator(t, cfg)
	for _, at := range []float64{0, 0.5, 12.25} {
		da, _, err := a.Advance(at)
		if err != nil {
			t.Fatal(err)
		}
		db, _, err := b.Advance(at)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(da.Data, db.Data) {
			t.Fatalf("t=%v: outputs differ", at)
		}
	}
	if a.Ticks() != 3 {
		t.Fatalf("ticks = %d, want 3", a.Ticks())
	}
}

// TestHeightStatistics checks the reference patch: zero mean since h0 has no
// DC term, and variance that scales linearly with amplitude.
func TestHeightStatistics(t *testing.T) {
	cfg := smallConfig()
	sim := newTestSimulator(t, cfg)
	if _, _, err := sim.Advance(0); err != nil {
		t.Fatal(err)
	}
	base := sim.Stats()
	if !(base.Variance > 0) {
		t.Fatalf("variance = %v, want positive", base.Variance)
	}
	if math.Abs(base.Mean) > 1e-4*math.Sqrt(base.Variance) {
		t.Fatalf("mean = %v with variance %v", base.Mean, base.Variance)
	}
	if !(base.Min <= base.Mean && base.Mean <= base.Max) {
		t.Fatalf("stats out of order: %+v", base)
	}

	cfg.Amplitude *= 4
	louder := newTestSimulator(t, cfg)
	if _, _, err := louder.Advance(0); err != nil {
		t.Fatal(err)
	}
	ratio := louder.Stats().Variance / base.Variance
	if math.Abs(ratio-4) > 1e-3 {
		t.Fatalf("variance ratio = %v, want 4", ratio)
	}
}

// TestHeightMatchesInverseOfBaseSpectrum rebuilds the t=0 height from h0 with
// the exported stages and compares it with the simulator output.
func TestHeightMatchesInverseOfBaseSpectrum(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 32
	sim := newTestSimulator(t, cfg)
	disp, _, err := sim.Advance(0)
	if err != nil {
		t.Fatal(err)
	}

	n := cfg.Resolution
	spec := NewComplexField(n)
	for i := range spec.Data {
		spec.Data[i] = sim.h0.K.Data[i] + complex64(cmplx.Conj(complex128(sim.h0.MinusK.Data[i])))
	}
	fft := newTestFFT(t, n)
	pp := NewPingPong(n)
	idx, err := fft.Inverse2D(spec, pp, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := make([]float32, n*n)
	if err := FinalPass(pp.Buffer(idx), want); err != nil {
		t.Fatal(err)
	}
	for i, v := range disp.Data {
		if math.Abs(float64(v.Y()-want[i])) > 1e-6 {
			t.Fatalf("height %d = %v, want %v", i, v.Y(), want[i])
		}
	}
}

func TestDisplacementWraps(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 16
	sim := newTestSimulator(t, cfg)
	disp, _, err := sim.Advance(3)
	if err != nil {
		t.Fatal(err)
	}
	n := cfg.Resolution
	for _, p := range [][2]int{{0, 0}, {5, 9}, {15, 15}} {
		x, y := p[0], p[1]
		v := disp.At(x, y)
		if disp.At(x+n, y) != v || disp.At(x, y-n) != v || disp.At(x-3*n, y+2*n) != v {
			t.Fatalf("displacement at (%d,%d) does not tile", x, y)
		}
	}
}

func TestSetWindAppliesOnNextAdvance(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 32
	sim := newTestSimulator(t, cfg)
	first, _, err := sim.Advance(1)
	if err != nil {
		t.Fatal(err)
	}
	original := cloneDisp(first)

	if err := sim.SetWind(25, [2]float64{0, 1}); err != nil {
		t.Fatal(err)
	}
	if got := sim.Params().WindSpeed; got != 25 {
		t.Fatalf("pending wind speed = %v", got)
	}
	if !slices.Equal(sim.Displacement().Data, original) {
		t.Fatal("published field changed before Advance")
	}
	changed, _, err := sim.Advance(1)
	if err != nil {
		t.Fatal(err)
	}
	if slices.Equal(changed.Data, original) {
		t.Fatal("wind change had no effect")
	}

	if err := sim.SetWind(cfg.WindSpeed, cfg.WindDirection); err != nil {
		t.Fatal(err)
	}
	restored, _, err := sim.Advance(1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(restored.Data, original) {
		t.Fatal("restoring the wind did not reproduce the surface")
	}

	if err := sim.SetWind(10, [2]float64{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("zero direction: error = %v", err)
	}
	if err := sim.SetAmplitude(-1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("negative amplitude: error = %v", err)
	}
	if err := sim.SetChoppiness(-1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("negative choppiness: error = %v", err)
	}
	if got := sim.Params().WindSpeed; got != cfg.WindSpeed {
		t.Fatalf("rejected update changed wind speed to %v", got)
	}
}

func TestChoppinessScalesHorizontalOnly(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 16
	sim := newTestSimulator(t, cfg)
	base, _, err := sim.Advance(2)
	if err != nil {
		t.Fatal(err)
	}
	before := cloneDisp(base)
	if err := sim.SetChoppiness(0); err != nil {
		t.Fatal(err)
	}
	flat, _, err := sim.Advance(2)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range flat.Data {
		if v.X() != 0 || v.Z() != 0 || v.Y() != before[i].Y() {
			t.Fatalf("texel %d = %v, before %v", i, v, before[i])
		}
	}
}

func TestNormalsAreUnitLength(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 64
	sim := newTestSimulator(t, cfg)
	_, normals, err := sim.Advance(4)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range normals.Data {
		if math.Abs(float64(v.Len())-1) > 1e-5 {
			t.Fatalf("normal %d = %v", i, v)
		}
	}
}

type failingTransformer struct{}

func (failingTransformer) Transform2D(*ComplexField, *PingPong, *ComplexField, Direction) (int, error) {
	return 0, errors.New("device lost")
}
func (failingTransformer) DeviceName() string { return "broken" }
func (failingTransformer) Close()             {}

func TestFailedAdvanceKeepsPublishedFields(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 16
	sim := newTestSimulator(t, cfg)
	disp, _, err := sim.Advance(1)
	if err != nil {
		t.Fatal(err)
	}
	published := cloneDisp(disp)

	sim.fft = failingTransformer{}
	if _, _, err := sim.Advance(2); err == nil {
		t.Fatal("Advance succeeded with a failing transform")
	}
	if sim.Displacement() != disp || !slices.Equal(disp.Data, published) {
		t.Fatal("failed tick replaced the published field")
	}
	if sim.Ticks() != 1 {
		t.Fatalf("ticks = %d, want 1", sim.Ticks())
	}
}

func TestAdvanceAfterClose(t *testing.T) {
	cfg := smallConfig()
	cfg.Resolution = 8
	sim, err := New(cfg, NewGaussianNoise(1, ""))
	if err != nil {
		t.Fatal(err)
	}
	sim.Close()
	sim.Close()
	if _, _, err := sim.Advance(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("error = %v, want ErrClosed", err)
	}
}

func TestIndependentInstancesRunConcurrently(t *testing.T) {
	configs := []Config{smallConfig(), smallConfig()}
	configs[0].Resolution = 32
	configs[1].Resolution = 64
	configs[1].PatchLength = 500

	want := make([][]mgl32.Vec3, len(configs))
	for i, cfg := range configs {
		sim := newTestSimulator(t, cfg)
		disp, _, err := sim.Advance(7)
		if err != nil {
			t.Fatal(err)
		}
		want[i] = cloneDisp(disp)
	}

	got := make([][]mgl32.Vec3, len(configs))
	errs := make([]error, len(configs))
	var wg sync.WaitGroup
	for i, cfg := range configs {
		sim := newTestSimulator(t, cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			disp, _, err := sim.Advance(7)
			errs[i] = err
			if err == nil {
				got[i] = cloneDisp(disp)
			}
		}()
	}
	wg.Wait()
	for i := range configs {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}
		if !slices.Equal(got[i], want[i]) {
			t.Fatalf("instance %d differs when run concurrently", i)
		}
	}
}

func BenchmarkAdvance256(b *testing.B) {
	cfg := DefaultConfig()
	sim := newTestSimulator(b, cfg)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := sim.Advance(float64(i) / 60); err != nil {
			b.Fatal(err)
		}
	}
}
