//go:build opencl

package ocean

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

// openCLFFT runs the butterfly stages on an OpenCL device. Both ping-pong
// buffers live on the device; only the input and the final buffer cross the
// bus. Kernel arguments are shared state, so transforms are serialised.
type openCLFFT struct {
	mu         sync.Mutex
	context    *cl.Context
	queue      *cl.CommandQueue
	program    *cl.Program
	rowKernel  *cl.Kernel
	colKernel  *cl.Kernel
	tableBuf   *cl.MemObject
	bufs       [2]*cl.MemObject
	n          int
	stages     int
	table      *ButterflyTable
	deviceName string
}

const butterflyKernelSource = `__kernel void butterfly_rows(
    const int n,
    const int stage,
    const float dir,
    __global const float4* table,
    __global const float2* src,
    __global float2* dst)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= n || y >= n) {
        return;
    }
    float4 e = table[stage * n + x];
    float2 w = (float2)(e.x, dir * e.y);
    float2 p = src[y * n + (int)e.z];
    float2 q = src[y * n + (int)e.w];
    dst[y * n + x] = p + (float2)(w.x * q.x - w.y * q.y, w.x * q.y + w.y * q.x);
}

__kernel void butterfly_cols(
    const int n,
    const int stage,
    const float dir,
    __global const float4* table,
    __global const float2* src,
    __global float2* dst)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= n || y >= n) {
        return;
    }
    float4 e = table[stage * n + y];
    float2 w = (float2)(e.x, dir * e.y);
    float2 p = src[(int)e.z * n + x];
    float2 q = src[(int)e.w * n + x];
    dst[y * n + x] = p + (float2)(w.x * q.x - w.y * q.y, w.x * q.y + w.y * q.x);
}`

func pickOpenCLDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, errors.New("no suitable OpenCL devices found")
}

func newOpenCLFFT(table *ButterflyTable) (*openCLFFT, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	device, err := pickOpenCLDevice()
	if err != nil {
		return nil, err
	}
	f := &openCLFFT{n: table.N, stages: table.Stages, table: table, deviceName: device.Name()}

	f.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	f.queue, err = f.context.CreateCommandQueue(device, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	f.program, err = f.context.CreateProgramWithSource([]string{butterflyKernelSource})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := f.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		f.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	if f.rowKernel, err = f.program.CreateKernel("butterfly_rows"); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating row kernel: %w", err)
	}
	if f.colKernel, err = f.program.CreateKernel("butterfly_cols"); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating column kernel: %w", err)
	}

	packed := table.Pack()
	f.tableBuf, err = f.context.CreateEmptyBuffer(cl.MemReadOnly, len(packed)*int(unsafe.Sizeof(float32(0))))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("allocating butterfly table: %w", err)
	}
	if _, err := f.queue.EnqueueWriteBufferFloat32(f.tableBuf, true, 0, packed, nil); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing butterfly table: %w", err)
	}
	byteSize := f.n * f.n * int(unsafe.Sizeof(complex64(0)))
	for i := range f.bufs {
		if f.bufs[i], err = f.context.CreateEmptyBuffer(cl.MemReadWrite, byteSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("allocating ping-pong buffer %d: %w", i, err)
		}
	}
	return f, nil
}

// Transform2D implements transformer.
func (f *openCLFFT) Transform2D(src *ComplexField, pp *PingPong, dst *ComplexField, dir Direction) (int, error) {
	if err := checkTransform(f.table, src, pp, dst); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queue == nil {
		return 0, ErrClosed
	}

	byteSize := len(src.Data) * int(unsafe.Sizeof(complex64(0)))
	if _, err := f.queue.EnqueueWriteBuffer(f.bufs[0], false, 0, byteSize, unsafe.Pointer(&src.Data[0]), nil); err != nil {
		return 0, fmt.Errorf("writing fft input: %w", err)
	}
	sign := float32(1)
	if dir == Inverse {
		sign = -1
	}
	global := []int{f.n, f.n}
	cur := 0
	for _, k := range []struct {
		kernel *cl.Kernel
		label  string
	}{{f.rowKernel, "rows"}, {f.colKernel, "columns"}} {
		for s := 0; s < f.stages; s++ {
			if err := k.kernel.SetArgs(int32(f.n), int32(s), sign, f.tableBuf, f.bufs[cur], f.bufs[cur^1]); err != nil {
				return 0, fmt.Errorf("setting %s stage %d arguments: %w", k.label, s, err)
			}
			if _, err := f.queue.EnqueueNDRangeKernel(k.kernel, nil, global, nil, nil); err != nil {
				return 0, fmt.Errorf("enqueueing %s stage %d: %w", k.label, s, err)
			}
			cur ^= 1
		}
	}
	out := pp.Buffer(cur)
	if _, err := f.queue.EnqueueReadBuffer(f.bufs[cur], true, 0, byteSize, unsafe.Pointer(&out.Data[0]), nil); err != nil {
		return 0, fmt.Errorf("reading fft result: %w", err)
	}
	if dst != nil {
		copy(dst.Data, out.Data)
	}
	return cur, nil
}

func (f *openCLFFT) DeviceName() string { return f.deviceName }

func (f *openCLFFT) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bufs {
		if f.bufs[i] != nil {
			f.bufs[i].Release()
			f.bufs[i] = nil
		}
	}
	if f.tableBuf != nil {
		f.tableBuf.Release()
		f.tableBuf = nil
	}
	if f.colKernel != nil {
		f.colKernel.Release()
		f.colKernel = nil
	}
	if f.rowKernel != nil {
		f.rowKernel.Release()
		f.rowKernel = nil
	}
	if f.program != nil {
		f.program.Release()
		f.program = nil
	}
	if f.queue != nil {
		f.queue.Release()
		f.queue = nil
	}
	if f.context != nil {
		f.context.Release()
		f.context = nil
	}
}
