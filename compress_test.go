package tdms

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestExportImportCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.CreateChannel("g", "c", DataTypeFloat64); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if err := w.WriteFloat64("g", "c", []float64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("WriteFloat64: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if err := ExportCompressed(path); err != nil {
		t.Fatalf("ExportCompressed: %v", err)
	}

	restored := filepath.Join(dir, "restored.tdms")
	if err := ImportCompressed(path+compressedExportSuffix, restored); err != nil {
		t.Fatalf("ImportCompressed: %v", err)
	}

	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatalf("ReadFile(restored): %v", err)
	}

	if !bytes.Equal(got, original) {
		t.Fatalf("restored file does not match original: got %d bytes, want %d bytes", len(got), len(original))
	}

	f, err := Open(restored)
	if err != nil {
		t.Fatalf("Open(restored): %v", err)
	}
	defer f.Close()

	values, err := f.Groups["g"].Channels["c"].ReadDataFloat64All()
	if err != nil {
		t.Fatalf("ReadDataFloat64All: %v", err)
	}
	want := []float64{1, 2, 3, 4, 5}
	if len(values) != len(want) {
		t.Fatalf("got %d values, want %d", len(values), len(want))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}
