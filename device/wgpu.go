package device

import (
	"fmt"
	"sync"

	"github.com/achilleasa/bindless/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// A Buffer wraps a storage buffer allocated on a wgpu device.
type Buffer struct {
	// Handle to the wgpu buffer.
	handle *wgpu.Buffer

	// A name for identifying the buffer.
	name string

	// Allocated size.
	size uint64
}

// Get buffer size.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Get wgpu buffer handle.
func (b *Buffer) Handle() *wgpu.Buffer {
	return b.handle
}

// Release buffer.
func (b *Buffer) Release() {
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
		b.size = 0
	}
}

// A WGPUDevice uploads buffers to a GPU through webgpu.
type WGPUDevice struct {
	logger log.Logger

	mu       sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	buffers map[string]*Buffer
}

// Acquire a headless wgpu device. Set forceFallback to request a software
// adapter.
func NewWGPUDevice(forceFallback bool) (*WGPUDevice, error) {
	d := &WGPUDevice{
		logger:   log.New("wgpu device"),
		instance: wgpu.CreateInstance(nil),
		buffers:  make(map[string]*Buffer),
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallback,
	})
	if err != nil {
		d.instance.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Bindless Mesh Device",
	})
	if err != nil {
		d.adapter.Release()
		d.instance.Release()
		return nil, fmt.Errorf("%w: %v", ErrDeviceRequest, err)
	}
	d.device = device
	d.queue = device.GetQueue()

	d.logger.Noticef("acquired wgpu device")
	return d, nil
}

// Get device name.
func (d *WGPUDevice) Name() string {
	return "wgpu"
}

// Replace the contents of the named storage buffer. The buffer is
// re-allocated when data no longer fits. Writing empty data releases the
// buffer since wgpu rejects zero-sized buffers; Buffer reports it as
// missing until the next non-empty write.
func (d *WGPUDevice) WriteBuffer(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return ErrDeviceClosed
	}
	if len(data) == 0 {
		if buf, exists := d.buffers[name]; exists {
			buf.Release()
			delete(d.buffers, name)
		}
		return nil
	}

	buf, err := d.ensureBuffer(name, uint64(len(data)))
	if err != nil {
		return err
	}

	if err = d.queue.WriteBuffer(buf.handle, 0, data); err != nil {
		return fmt.Errorf("wgpu device: could not write buffer %s: %w", name, err)
	}
	return nil
}

// Get the named buffer so it can be bound to a pipeline.
func (d *WGPUDevice) Buffer(name string) (*Buffer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, ok := d.buffers[name]
	return buf, ok
}

// Allocate (or grow) the named buffer so it can hold at least size bytes.
func (d *WGPUDevice) ensureBuffer(name string, size uint64) (*Buffer, error) {
	// Copies must be 4-byte aligned.
	if size%4 != 0 {
		size += 4 - (size % 4)
	}

	buf, exists := d.buffers[name]
	if exists && buf.size >= size {
		return buf, nil
	}
	if !exists {
		buf = &Buffer{name: name}
		d.buffers[name] = buf
	}

	// If the buffer is already allocated release it
	buf.Release()

	handle, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            name,
		Size:             size,
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu device: could not allocate buffer %s of size %d: %w", name, size, err)
	}

	buf.handle = handle
	buf.size = size
	d.logger.Debugf("allocated buffer %q (%d bytes)", name, size)
	return buf, nil
}

// Release all buffers and device handles.
func (d *WGPUDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, buf := range d.buffers {
		buf.Release()
	}
	d.buffers = nil

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
