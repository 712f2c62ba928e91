package ocean

import "fmt"

// newTransformer selects the FFT implementation named by backend.
func newTransformer(backend string, table *ButterflyTable, workers int) (transformer, error) {
	switch backend {
	case "", BackendCPU:
		fft, err := NewFFT(table, workers)
		if err != nil {
			return nil, err
		}
		return fft, nil
	case BackendOpenCL:
		fft, err := newOpenCLFFT(table)
		if err != nil {
			return nil, err
		}
		return fft, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfiguration, backend)
}
