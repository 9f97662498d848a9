package tdms

import (
	"path/filepath"
	"testing"
)

func TestWriterRoundTripBasicTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basic.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	if err := w.SetFileProperty("author", DataTypeString, "bench rig"); err != nil {
		t.Fatalf("SetFileProperty: %v", err)
	}
	if err := w.SetGroupProperty("measurements", "location", DataTypeString, "lab 3"); err != nil {
		t.Fatalf("SetGroupProperty: %v", err)
	}
	if err := w.CreateChannel("measurements", "temperature", DataTypeFloat64); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if err := w.SetChannelProperty("measurements", "temperature", "unit_string", DataTypeString, "degC"); err != nil {
		t.Fatalf("SetChannelProperty: %v", err)
	}
	if err := w.WriteFloat64("measurements", "temperature", []float64{1.5, 2.5, 3.5}); err != nil {
		t.Fatalf("WriteFloat64: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if author, err := f.Properties["author"].AsString(); err != nil || author != "bench rig" {
		t.Errorf("author property = %q, %v, want %q, nil", author, err, "bench rig")
	}

	group, ok := f.Groups["measurements"]
	if !ok {
		t.Fatalf("group %q not found", "measurements")
	}
	if loc, err := group.Properties["location"].AsString(); err != nil || loc != "lab 3" {
		t.Errorf("group location = %q, %v, want %q, nil", loc, err, "lab 3")
	}

	ch, ok := group.Channels["temperature"]
	if !ok {
		t.Fatalf("channel %q not found", "temperature")
	}
	if unit, err := ch.Properties["unit_string"].AsString(); err != nil || unit != "degC" {
		t.Errorf("channel unit = %q, %v, want %q, nil", unit, err, "degC")
	}

	values, err := ch.ReadDataFloat64All()
	if err != nil {
		t.Fatalf("ReadDataFloat64All: %v", err)
	}
	want := []float64{1.5, 2.5, 3.5}
	if len(values) != len(want) {
		t.Fatalf("got %d values, want %d", len(values), len(want))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestWriterRoundTripStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strings.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.CreateChannel("events", "message", DataTypeString); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	want := []string{"boot", "calibrate", "run", ""}
	if err := w.WriteStrings("events", "message", want); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	ch := f.Groups["events"].Channels["message"]
	got, err := ch.ReadDataStringAll()
	if err != nil {
		t.Fatalf("ReadDataStringAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestWriterAppendPath covers the scenario where three flushes of the same
// channel, with no new channels, no new properties, and no object-list
// changes, all land in the append path of a single segment.
func TestWriterAppendPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.CreateChannel("g", "c", DataTypeInt32); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	for i := int32(0); i < 3; i++ {
		if err := w.WriteInt32("g", "c", []int32{i, i + 1}); err != nil {
			t.Fatalf("WriteInt32: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush %d: %v", i, err)
		}
	}

	if got, want := len(w.channels), 1; got != want {
		t.Fatalf("len(channels) = %d, want %d", got, want)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	// All three flushes should have landed in a single segment: the append
	// path never starts a new one.
	if got, want := len(f.segments), 1; got != want {
		t.Fatalf("len(segments) = %d, want %d", got, want)
	}

	ch := f.Groups["g"].Channels["c"]
	got, err := ch.ReadDataInt32All()
	if err != nil {
		t.Fatalf("ReadDataInt32All: %v", err)
	}
	want := []int32{0, 1, 1, 2, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestWriterNewSegmentOnPropertyChange covers the scenario where setting a
// property between flushes forces a new segment instead of an append.
func TestWriterNewSegmentOnPropertyChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newseg.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.CreateChannel("g", "c", DataTypeInt32); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if err := w.WriteInt32("g", "c", []int32{1}); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := w.SetChannelProperty("g", "c", "calibrated", DataTypeBool, true); err != nil {
		t.Fatalf("SetChannelProperty: %v", err)
	}
	if err := w.WriteInt32("g", "c", []int32{2}); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if got, want := len(f.segments), 2; got != want {
		t.Fatalf("len(segments) = %d, want %d", got, want)
	}

	ch := f.Groups["g"].Channels["c"]
	calibrated, err := ch.Properties["calibrated"].AsBool()
	if err != nil || !calibrated {
		t.Errorf("calibrated property = %v, %v, want true, nil", calibrated, err)
	}
}

func TestWriterCreateChannelTypeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.tdms")
	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	defer w.Close()

	if err := w.CreateChannel("g", "c", DataTypeInt32); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if err := w.CreateChannel("g", "c", DataTypeFloat64); err == nil {
		t.Fatal("expected error re-creating channel with different type, got nil")
	}
}

func TestWriterWriteValuesWrongType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrongtype.tdms")
	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	defer w.Close()

	if err := w.CreateChannel("g", "c", DataTypeInt32); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if err := w.WriteFloat64("g", "c", []float64{1.0}); err == nil {
		t.Fatal("expected error writing float64 to int32 channel, got nil")
	}
}

// TestWriterStringOffsetTable covers scenario 5 from the testable
// properties: strings written through the cumulative offset table, with
// empty strings at the start and in the middle of the sequence, read back
// unchanged.
func TestWriterStringOffsetTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.CreateChannel("T", "L", DataTypeString); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	want := []string{"", "Hello", "", "World"}
	if err := w.WriteStrings("T", "L", want); err != nil {
		t.Fatalf("WriteStrings: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	got, err := f.Groups["T"].Channels["L"].ReadDataStringAll()
	if err != nil {
		t.Fatalf("ReadDataStringAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestWriterThreeChannelVaryingPresence covers scenario 4 from the testable
// properties: three channels present in varying combinations across three
// flushes, each forcing a new segment with new-object-list set, with each
// channel's read result equal to the concatenation of only the flushes it
// was written in. This also guards the case where a channel (A) reappears
// with the same value count and type it last had two segments back: its
// raw-data index must be fully re-emitted rather than matches-previous,
// since the immediately preceding segment (where B and C, but not A, had
// data) has no entry for A to match against.
func TestWriterThreeChannelVaryingPresence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varying.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	for _, ch := range []string{"A", "B", "C"} {
		if err := w.CreateChannel("g", ch, DataTypeInt32); err != nil {
			t.Fatalf("CreateChannel %s: %v", ch, err)
		}
	}

	if err := w.WriteInt32("g", "A", []int32{1}); err != nil {
		t.Fatalf("write A: %v", err)
	}
	if err := w.WriteInt32("g", "B", []int32{10}); err != nil {
		t.Fatalf("write B: %v", err)
	}
	if err := w.WriteInt32("g", "C", []int32{100}); err != nil {
		t.Fatalf("write C: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush 1: %v", err)
	}

	if err := w.WriteInt32("g", "B", []int32{20}); err != nil {
		t.Fatalf("write B: %v", err)
	}
	if err := w.WriteInt32("g", "C", []int32{200}); err != nil {
		t.Fatalf("write C: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush 2: %v", err)
	}

	if err := w.WriteInt32("g", "A", []int32{2}); err != nil {
		t.Fatalf("write A: %v", err)
	}
	if err := w.WriteInt32("g", "C", []int32{300}); err != nil {
		t.Fatalf("write C: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush 3: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if got, want := len(f.segments), 3; got != want {
		t.Fatalf("len(segments) = %d, want %d", got, want)
	}
	for _, seg := range f.segments {
		if !seg.leadIn.newObjectList {
			t.Errorf("segment at offset %d: new-object-list not set, want set for a changed channel set", seg.offset)
		}
	}

	cases := []struct {
		channel string
		want    []int32
	}{
		{"A", []int32{1, 2}},
		{"B", []int32{10, 20}},
		{"C", []int32{100, 200, 300}},
	}
	for _, tc := range cases {
		got, err := f.Groups["g"].Channels[tc.channel].ReadDataInt32All()
		if err != nil {
			t.Fatalf("ReadDataInt32All(%s): %v", tc.channel, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("channel %s: got %v, want %v", tc.channel, got, tc.want)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("channel %s value[%d] = %d, want %d", tc.channel, i, got[i], tc.want[i])
			}
		}
	}
}

// TestFormatPathComponentBijection covers the path-escaping bijection
// property: parsing the formatted path of a channel name recovers the
// original name, including names containing quotes.
func TestFormatPathComponentBijection(t *testing.T) {
	names := []string{"plain", "with'quote", "two''quotes", "'leading", "trailing'"}

	for _, name := range names {
		path := formatChannelPath("group", name)
		_, channel, err := parsePath(path)
		if err != nil {
			t.Fatalf("parsePath(%q): %v", path, err)
		}
		if channel != name {
			t.Errorf("parsePath(formatChannelPath(%q)) = %q, want %q", name, channel, name)
		}
	}
}

// TestWriterTimestampProperty covers scenario 6 from the testable
// properties.
func TestWriterTimestampProperty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timestamp.tdms")

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	ts := Timestamp{Seconds: 2082844800, Fractions: 0}
	if err := w.SetFileProperty("captured_at", DataTypeTimestamp, ts); err != nil {
		t.Fatalf("SetFileProperty: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	got, err := f.Properties["captured_at"].AsTimestamp()
	if err != nil {
		t.Fatalf("AsTimestamp: %v", err)
	}
	if got.Seconds != ts.Seconds || got.Fractions != ts.Fractions {
		t.Errorf("timestamp = %+v, want %+v", got, ts)
	}
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idempotent.tdms")
	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.SetFileProperty("x", DataTypeInt32, int32(1)); err != ErrClosed {
		t.Errorf("SetFileProperty after Close = %v, want %v", err, ErrClosed)
	}
}
