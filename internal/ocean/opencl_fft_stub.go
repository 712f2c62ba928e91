//go:build !opencl

package ocean

import "fmt"

type openCLFFT struct{}

func newOpenCLFFT(*ButterflyTable) (*openCLFFT, error) {
	return nil, fmt.Errorf("%w: OpenCL support is not enabled; rebuild with -tags opencl", ErrInvalidConfiguration)
}

func (f *openCLFFT) Transform2D(*ComplexField, *PingPong, *ComplexField, Direction) (int, error) {
	return 0, fmt.Errorf("%w: OpenCL FFT unavailable", ErrInvalidConfiguration)
}

func (f *openCLFFT) DeviceName() string { return "" }

func (f *openCLFFT) Close() {}
