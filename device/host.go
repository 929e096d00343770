package device

import "sync"

// A HostDevice keeps buffers in host memory. It backs dry runs and tests.
type HostDevice struct {
	mu      sync.Mutex
	buffers map[string][]byte
	writes  int
	closed  bool
}

// Create a host memory device.
func NewHostDevice() *HostDevice {
	return &HostDevice{
		buffers: make(map[string][]byte),
	}
}

// Get device name.
func (d *HostDevice) Name() string {
	return "host"
}

// Replace the contents of the named buffer with a copy of data.
func (d *HostDevice) WriteBuffer(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}

	d.buffers[name] = append([]byte(nil), data...)
	d.writes++
	return nil
}

// Get a copy of the named buffer contents.
func (d *HostDevice) Buffer(name string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, ok := d.buffers[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Get the number of buffer writes served by this device.
func (d *HostDevice) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// Release all buffers.
func (d *HostDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buffers = nil
	d.closed = true
}
