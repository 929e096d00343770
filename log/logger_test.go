package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	specs := []struct {
		in  string
		exp Level
	}{
		{"debug", Debug},
		{"INFO", Info},
		{"", Notice},
		{"warn", Warning},
		{"error", Error},
	}

	for index, spec := range specs {
		got, err := ParseLevel(spec.in)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if got != spec.exp {
			t.Fatalf("[spec %d] expected level %d; got %d", index, spec.exp, got)
		}
	}

	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestSinkHonorsLevel(t *testing.T) {
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	var buf bytes.Buffer
	SetSink(&buf)
	SetLevel(Warning)

	logger := New("test")
	logger.Info("hidden")
	logger.Warning("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("expected warning message in output; got %q", out)
	}
}

func TestFileSink(t *testing.T) {
	defer SetSink(os.Stdout)

	logFile := filepath.Join(t.TempDir(), "bindless.log")
	closer := SetFile(logFile, 1, 1)

	New("test").Error("written to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("expected log file to contain message; got %q", string(data))
	}
}
