// Package device uploads packed buffers to the device that runs the
// traversal kernels.
package device

import "errors"

// Names of the buffers written by the packer.
const (
	VertexBuffer    = "bindless vertices"
	PrimitiveBuffer = "bindless primitives"
	NodeBuffer      = "bindless nodes"
)

var (
	ErrDeviceClosed  = errors.New("device: device is closed")
	ErrNoAdapter     = errors.New("device: could not acquire a gpu adapter")
	ErrDeviceRequest = errors.New("device: could not acquire a gpu device")
)

// A Device receives named buffer writes. Each write replaces the full
// contents of the named buffer.
type Device interface {
	// Get device name.
	Name() string

	// Replace the contents of the named buffer with data, growing the
	// device allocation as needed.
	WriteBuffer(name string, data []byte) error

	// Release all device resources.
	Close()
}
