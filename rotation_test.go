package tdms

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingWriterRotatesOnSize(t *testing.T) {
	base := filepath.Join(t.TempDir(), "rotating.tdms")

	rw, err := NewRotatingWriter(base, 64)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	if err := rw.CreateChannel("g", "c", DataTypeFloat64); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	values := make([]float64, 16)
	for i := range values {
		values[i] = float64(i)
	}

	for i := 0; i < 10; i++ {
		if err := rw.WriteFloat64("g", "c", values); err != nil {
			t.Fatalf("WriteFloat64 %d: %v", i, err)
		}
		if err := rw.Flush(); err != nil {
			t.Fatalf("Flush %d: %v", i, err)
		}
	}

	if err := rw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(base); err != nil {
		t.Fatalf("base file missing: %v", err)
	}
	if _, err := os.Stat(rotatedPath(base, 1)); err != nil {
		t.Fatalf("expected at least one rotated file, got: %v", err)
	}

	// Every rotated file must stand on its own: opening it in isolation
	// must still find the channel and be able to read its data back.
	for idx := 0; ; idx++ {
		path := rotatedPath(base, idx)
		if _, err := os.Stat(path); err != nil {
			if idx == 0 {
				t.Fatalf("base file missing: %v", err)
			}
			break
		}

		f, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%s): %v", path, err)
		}

		ch, ok := f.Groups["g"].Channels["c"]
		if !ok {
			f.Close()
			t.Fatalf("%s: channel g/c not found", path)
		}
		if ch.NumValues() == 0 {
			f.Close()
			t.Fatalf("%s: channel g/c has no values", path)
		}
		f.Close()
	}
}

func TestRotatedPath(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "/tmp/run.tdms"},
		{1, "/tmp/run.tdms.1"},
		{2, "/tmp/run.tdms.2"},
	}

	for _, tc := range cases {
		if got := rotatedPath("/tmp/run.tdms", tc.index); got != tc.want {
			t.Errorf("rotatedPath(_, %d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}
