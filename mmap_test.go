package tdms

import (
	"path/filepath"
	"testing"
)

func TestOpenMmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.CreateChannel("g", "c", DataTypeUint16); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if err := w.WriteUint16("g", "c", []uint16{10, 20, 30}); err != nil {
		t.Fatalf("WriteUint16: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, reader, err := OpenMmap(path)
	if err != nil {
		t.Fatalf("OpenMmap: %v", err)
	}
	defer reader.Close()

	values, err := f.Groups["g"].Channels["c"].ReadDataUint16All()
	if err != nil {
		t.Fatalf("ReadDataUint16All: %v", err)
	}
	want := []uint16{10, 20, 30}
	if len(values) != len(want) {
		t.Fatalf("got %d values, want %d", len(values), len(want))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value[%d] = %d, want %d", i, values[i], want[i])
		}
	}
}
