package device

import (
	"bytes"
	"errors"
	"testing"
)

func TestHostDeviceWrites(t *testing.T) {
	dev := NewHostDevice()
	defer dev.Close()

	data := []byte{1, 2, 3, 4}
	if err := dev.WriteBuffer(NodeBuffer, data); err != nil {
		t.Fatal(err)
	}

	// The device must keep its own copy.
	data[0] = 0xFF

	got, ok := dev.Buffer(NodeBuffer)
	if !ok {
		t.Fatal("expected node buffer to exist")
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("expected buffer contents [1 2 3 4]; got %v", got)
	}

	if err := dev.WriteBuffer(NodeBuffer, []byte{9}); err != nil {
		t.Fatal(err)
	}
	if got, _ = dev.Buffer(NodeBuffer); !bytes.Equal(got, []byte{9}) {
		t.Fatalf("expected write to replace buffer contents; got %v", got)
	}

	if dev.Writes() != 2 {
		t.Fatalf("expected 2 writes; got %d", dev.Writes())
	}
	if _, ok := dev.Buffer(VertexBuffer); ok {
		t.Fatal("expected vertex buffer not to exist")
	}
}

func TestHostDeviceClosed(t *testing.T) {
	dev := NewHostDevice()
	dev.Close()

	if err := dev.WriteBuffer(VertexBuffer, []byte{1}); !errors.Is(err, ErrDeviceClosed) {
		t.Fatalf("expected ErrDeviceClosed; got %v", err)
	}
}
