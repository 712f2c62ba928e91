package ocean

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Component indices of the three displacement lanes.
const (
	ComponentY = iota
	ComponentX
	ComponentZ
	componentCount
)

var componentNames = [componentCount]string{"dy", "dx", "dz"}

// lane owns every buffer one displacement component touches during a tick, so
// the three lanes can run their transforms at the same time.
type lane struct {
	spectrum *ComplexField
	pp       *PingPong
	scalar   []float32
}

type surface struct {
	disp    *DisplacementField
	normals *NormalField
}

// Stats summarises the vertical displacement of the last completed tick.
type Stats struct {
	Mean     float64
	Variance float64
	Min      float64
	Max      float64
}

// Simulator owns the buffers and parameters of one ocean patch. Instances
// share nothing mutable; several patches of different scale can run side by
// side.
type Simulator struct {
	n           int
	patchLength float64
	gravity     float64
	backendName string

	table *ButterflyTable
	d     *dispatcher
	fft   transformer
	noise [NoiseChannels][]float32

	paramsMu   sync.Mutex
	pending    SpectrumParams
	choppiness float32
	dirty      bool

	mu      sync.Mutex
	params  SpectrumParams
	h0      *Spectrum
	scratch *Spectrum
	lanes   [componentCount]*lane
	work    surface
	visible surface
	heights []float64
	ticks   uint64
	closed  bool
}

// New validates cfg, fetches the four noise grids for its resolution and
// synthesises the base spectrum.
func New(cfg Config, noise NoiseSource) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.Resolution
	table, err := ButterflyTableFor(n)
	if err != nil {
		return nil, err
	}
	grids, err := loadNoise(noise, n)
	if err != nil {
		return nil, err
	}
	fft, err := newTransformer(cfg.Backend, table, cfg.Workers)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		n:           n,
		patchLength: cfg.PatchLength,
		gravity:     cfg.Gravity,
		backendName: fft.DeviceName(),
		table:       table,
		d:           newDispatcher(cfg.Workers),
		fft:         fft,
		noise:       grids,
		pending:     cfg.spectrumParams(),
		choppiness:  float32(cfg.Choppiness),
		params:      cfg.spectrumParams(),
		h0:          NewSpectrum(n),
		scratch:     NewSpectrum(n),
		work:        surface{disp: NewDisplacementField(n), normals: NewNormalField(n)},
		visible:     surface{disp: NewDisplacementField(n), normals: NewNormalField(n)},
	}
	for i := range s.lanes {
		s.lanes[i] = &lane{
			spectrum: NewComplexField(n),
			pp:       NewPingPong(n),
			scalar:   make([]float32, n*n),
		}
	}
	if err := synthesize(s.d, s.params, s.noise, s.scratch, s.h0); err != nil {
		fft.Close()
		return nil, err
	}
	return s, nil
}

// Resolution reports N.
func (s *Simulator) Resolution() int { return s.n }

// DeviceName reports where the transforms run.
func (s *Simulator) DeviceName() string { return s.backendName }

// SetWind replaces wind speed and direction. The change is applied by the
// next Advance.
func (s *Simulator) SetWind(speed float64, direction [2]float64) error {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	next := s.pending
	next.WindSpeed = speed
	next.WindDirection = direction
	if err := next.validate(); err != nil {
		return err
	}
	s.pending = next
	s.dirty = true
	return nil
}

// SetAmplitude replaces the spectrum amplitude from the next Advance on.
func (s *Simulator) SetAmplitude(amplitude float64) error {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	next := s.pending
	next.Amplitude = amplitude
	if err := next.validate(); err != nil {
		return err
	}
	s.pending = next
	s.dirty = true
	return nil
}

// SetChoppiness replaces the horizontal displacement scale from the next
// Advance on.
func (s *Simulator) SetChoppiness(choppiness float64) error {
	if choppiness < 0 {
		return fmt.Errorf("%w: choppiness %v must not be negative", ErrInvalidConfiguration, choppiness)
	}
	s.paramsMu.Lock()
	s.choppiness = float32(choppiness)
	s.paramsMu.Unlock()
	return nil
}

// Params returns the spectrum parameters the next Advance will use.
func (s *Simulator) Params() SpectrumParams {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	return s.pending
}

func (s *Simulator) takePending() (SpectrumParams, float32, bool) {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	dirty := s.dirty
	s.dirty = false
	return s.pending, s.choppiness, dirty
}

// Advance runs one tick at simulation time t: time evolution, three inverse
// FFTs with their final passes, merge and normal estimation. The returned
// fields are owned by the simulator, must be treated as read-only and stay
// valid until the next Advance. When any stage fails the previously
// published fields are left untouched.
func (s *Simulator) Advance(t float64) (*DisplacementField, *NormalField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}

	params, choppiness, dirty := s.takePending()
	if dirty {
		if err := synthesize(s.d, params, s.noise, s.scratch, s.h0); err != nil {
			return nil, nil, fmt.Errorf("resynthesising spectrum: %w", err)
		}
		s.params = params
	}

	dy, dx, dz := s.lanes[ComponentY], s.lanes[ComponentX], s.lanes[ComponentZ]
	if err := evolve(s.d, s.h0, s.patchLength, s.gravity, t, dy.spectrum, dx.spectrum, dz.spectrum); err != nil {
		return nil, nil, fmt.Errorf("evolving spectrum: %w", err)
	}

	var g errgroup.Group
	for i, l := range s.lanes {
		g.Go(func() error {
			idx, err := s.fft.Transform2D(l.spectrum, l.pp, nil, Inverse)
			if err != nil {
				return fmt.Errorf("fft %s: %w", componentNames[i], err)
			}
			if err := finalPass(s.d, l.pp.Buffer(idx), l.scalar); err != nil {
				return fmt.Errorf("final pass %s: %w", componentNames[i], err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if err := Merge(dy.scalar, dx.scalar, dz.scalar, choppiness, s.work.disp); err != nil {
		return nil, nil, err
	}
	if err := estimateNormals(s.d, s.work.disp, s.patchLength, s.work.normals); err != nil {
		return nil, nil, err
	}
	s.work, s.visible = s.visible, s.work
	s.ticks++
	return s.visible.disp, s.visible.normals, nil
}

// Displacement returns the field published by the last successful Advance.
func (s *Simulator) Displacement() *DisplacementField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible.disp
}

// Normals returns the normals published by the last successful Advance.
func (s *Simulator) Normals() *NormalField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible.normals
}

// Ticks reports how many ticks have completed.
func (s *Simulator) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Stats returns height statistics of the published displacement field.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heights = s.visible.disp.Heights(s.heights)
	mean, variance := stat.PopMeanVariance(s.heights, nil)
	return Stats{
		Mean:     mean,
		Variance: variance,
		Min:      floats.Min(s.heights),
		Max:      floats.Max(s.heights),
	}
}

// Close releases backend resources. Advance fails afterwards.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.fft.Close()
}
