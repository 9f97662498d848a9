package tdms

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// formatPathComponent escapes a group or channel name for use in an object
// path: internal single quotes are doubled, matching the escaping that
// parsePath undoes.
func formatPathComponent(name string) string {
	return strings.ReplaceAll(name, "'", "''")
}

// formatGroupPath returns the object path for a group.
func formatGroupPath(group string) string {
	return "/'" + formatPathComponent(group) + "'"
}

// formatChannelPath returns the object path for a channel.
func formatChannelPath(group, channel string) string {
	return formatGroupPath(group) + "/'" + formatPathComponent(channel) + "'"
}

type groupState struct {
	name       string
	properties map[string]Property
	modified   bool
}

type channelState struct {
	group      string
	name       string
	path       string
	dataType   DataType
	properties map[string]Property

	propertiesModified bool

	buffer *rawDataBuffer

	// indexWritten reports whether an index has ever been written for this
	// channel; false forces a full index on its first contribution.
	indexWritten bool

	lastIndexValueCount uint64
	lastIndexDataType   DataType

	// indexChangedThisFlush reports whether this flush must emit a full
	// raw-data index for the channel rather than matches-previous. A
	// matches-previous header is only valid when the immediately preceding
	// segment asserted a live index for this exact path, so this is also
	// forced true whenever the channel was absent from that segment's
	// written set, even if its value count and type happen to match.
	indexChangedThisFlush bool
}

// WriterOption configures a [Writer] at construction time.
type WriterOption func(*Writer)

// WithByteOrder sets the byte order new segments are written in. Defaults to
// little-endian, matching what LabVIEW itself writes.
func WithByteOrder(order binary.ByteOrder) WriterOption {
	return func(w *Writer) { w.order = order }
}

// WithWriterLogger attaches a structured logger. Defaults to a no-op logger.
func WithWriterLogger(logger *zap.SugaredLogger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// Writer incrementally builds a TDMS data file and its companion index
// file. Values are accumulated per channel in memory and only touch disk on
// [Writer.Flush] or [Writer.Close]; a flush either appends to the current
// segment's raw-data block or emits an entirely new segment, whichever
// keeps the file smallest without rewriting anything already on disk.
type Writer struct {
	dataFile  io.WriteSeeker
	indexFile io.WriteSeeker // nil if the writer was created without one
	order     binary.ByteOrder
	logger    *zap.SugaredLogger

	rootProperties map[string]Property
	rootModified   bool

	groups     map[string]*groupState
	groupOrder []string

	channels     map[string]*channelState // keyed by object path
	channelOrder []string                 // creation order, by object path

	lastWrittenSet []string // object paths with data in the last segment
	isFirstSegment bool

	currentDataLeadInOffset  int64
	currentIndexLeadInOffset int64
	currentMetadataSize      uint64
	currentRawDataSize       uint64
	currentSegmentHasData    bool

	closed bool
}

// NewWriter creates a [Writer] writing segments to dataFile, and mirroring
// their metadata (but not raw data) to indexFile. Pass a nil indexFile to
// write the data file only.
func NewWriter(dataFile, indexFile io.WriteSeeker, opts ...WriterOption) *Writer {
	w := &Writer{
		dataFile:       dataFile,
		indexFile:      indexFile,
		order:          binary.LittleEndian,
		logger:         zap.NewNop().Sugar(),
		rootProperties: make(map[string]Property),
		groups:         make(map[string]*groupState),
		channels:       make(map[string]*channelState),
		isFirstSegment: true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// CreateFile creates a TDMS data file at path and a companion index file at
// path+"_index" (so "data.tdms" gets "data.tdms_index"), truncating both if
// they already exist.
func CreateFile(path string, opts ...WriterOption) (*Writer, error) {
	dataFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create data file %s: %w", path, err)
	}

	indexFile, err := os.Create(path + "_index")
	if err != nil {
		_ = dataFile.Close()
		return nil, fmt.Errorf("failed to create index file for %s: %w", path, err)
	}

	return NewWriter(dataFile, indexFile, opts...), nil
}

func (w *Writer) group(name string) *groupState {
	g, ok := w.groups[name]
	if !ok {
		g = &groupState{name: name, properties: make(map[string]Property), modified: true}
		w.groups[name] = g
		w.groupOrder = append(w.groupOrder, name)
	}
	return g
}

// SetFileProperty sets a root-level (file) property, to be emitted on the
// next flush.
func (w *Writer) SetFileProperty(name string, dataType DataType, value any) error {
	if w.closed {
		return ErrClosed
	}
	w.rootProperties[name] = Property{Name: name, TypeCode: dataType, Value: value}
	w.rootModified = true
	return nil
}

// SetGroupProperty sets a property on a group, creating the group if it
// does not already exist.
func (w *Writer) SetGroupProperty(group, name string, dataType DataType, value any) error {
	if w.closed {
		return ErrClosed
	}
	g := w.group(group)
	g.properties[name] = Property{Name: name, TypeCode: dataType, Value: value}
	g.modified = true
	return nil
}

// CreateChannel declares a channel with a fixed data type. A channel must be
// created before values can be written to it. Creating an already-existing
// channel is a no-op if the data type matches, and an error otherwise.
func (w *Writer) CreateChannel(group, channel string, dataType DataType) error {
	if w.closed {
		return ErrClosed
	}

	w.group(group) // ensure the group exists

	path := formatChannelPath(group, channel)
	if existing, ok := w.channels[path]; ok {
		if existing.dataType != dataType {
			return fmt.Errorf("%w: channel %s already created with type %s", ErrTypeMismatch, path, existing.dataType)
		}
		return nil
	}

	cs := &channelState{
		group:      group,
		name:       channel,
		path:       path,
		dataType:   dataType,
		properties: make(map[string]Property),
		buffer:     newRawDataBuffer(dataType),
	}
	w.channels[path] = cs
	w.channelOrder = append(w.channelOrder, path)
	return nil
}

// SetChannelProperty sets a property on a channel. The channel must already
// exist via [Writer.CreateChannel].
func (w *Writer) SetChannelProperty(group, channel, name string, dataType DataType, value any) error {
	if w.closed {
		return ErrClosed
	}
	cs, ok := w.channels[formatChannelPath(group, channel)]
	if !ok {
		return fmt.Errorf("%w: channel %s/%s", ErrNotFound, group, channel)
	}
	cs.properties[name] = Property{Name: name, TypeCode: dataType, Value: value}
	cs.propertiesModified = true
	return nil
}

// writeValues appends values of any supported type to a channel's pending
// buffer. The channel must have been created with the matching data type.
func (w *Writer) writeValues(group, channel string, dataType DataType, values any) error {
	if w.closed {
		return ErrClosed
	}
	cs, ok := w.channels[formatChannelPath(group, channel)]
	if !ok {
		return fmt.Errorf("%w: channel %s/%s", ErrNotFound, group, channel)
	}
	if cs.dataType != dataType {
		return fmt.Errorf("%w: channel %s/%s is %s, not %s", ErrTypeMismatch, group, channel, cs.dataType, dataType)
	}
	return cs.buffer.appendValues(w.order, values)
}

// WriteInt8 appends int8 values to the named channel's pending buffer.
func (w *Writer) WriteInt8(group, channel string, values []int8) error {
	return w.writeValues(group, channel, DataTypeInt8, values)
}

// WriteInt16 appends int16 values to the named channel's pending buffer.
func (w *Writer) WriteInt16(group, channel string, values []int16) error {
	return w.writeValues(group, channel, DataTypeInt16, values)
}

// WriteInt32 appends int32 values to the named channel's pending buffer.
func (w *Writer) WriteInt32(group, channel string, values []int32) error {
	return w.writeValues(group, channel, DataTypeInt32, values)
}

// WriteInt64 appends int64 values to the named channel's pending buffer.
func (w *Writer) WriteInt64(group, channel string, values []int64) error {
	return w.writeValues(group, channel, DataTypeInt64, values)
}

// WriteUint8 appends uint8 values to the named channel's pending buffer.
func (w *Writer) WriteUint8(group, channel string, values []uint8) error {
	return w.writeValues(group, channel, DataTypeUint8, values)
}

// WriteUint16 appends uint16 values to the named channel's pending buffer.
func (w *Writer) WriteUint16(group, channel string, values []uint16) error {
	return w.writeValues(group, channel, DataTypeUint16, values)
}

// WriteUint32 appends uint32 values to the named channel's pending buffer.
func (w *Writer) WriteUint32(group, channel string, values []uint32) error {
	return w.writeValues(group, channel, DataTypeUint32, values)
}

// WriteUint64 appends uint64 values to the named channel's pending buffer.
func (w *Writer) WriteUint64(group, channel string, values []uint64) error {
	return w.writeValues(group, channel, DataTypeUint64, values)
}

// WriteFloat32 appends float32 values to the named channel's pending buffer.
func (w *Writer) WriteFloat32(group, channel string, values []float32) error {
	return w.writeValues(group, channel, DataTypeFloat32, values)
}

// WriteFloat64 appends float64 values to the named channel's pending buffer.
func (w *Writer) WriteFloat64(group, channel string, values []float64) error {
	return w.writeValues(group, channel, DataTypeFloat64, values)
}

// WriteFloat128 appends [Float128] values to the named channel's pending buffer.
func (w *Writer) WriteFloat128(group, channel string, values []Float128) error {
	return w.writeValues(group, channel, DataTypeFloat128, values)
}

// WriteBool appends bool values to the named channel's pending buffer.
func (w *Writer) WriteBool(group, channel string, values []bool) error {
	return w.writeValues(group, channel, DataTypeBool, values)
}

// WriteTimestamp appends [Timestamp] values to the named channel's pending buffer.
func (w *Writer) WriteTimestamp(group, channel string, values []Timestamp) error {
	return w.writeValues(group, channel, DataTypeTimestamp, values)
}

// WriteComplex64 appends complex64 values to the named channel's pending buffer.
func (w *Writer) WriteComplex64(group, channel string, values []complex64) error {
	return w.writeValues(group, channel, DataTypeComplex64, values)
}

// WriteComplex128 appends complex128 values to the named channel's pending buffer.
func (w *Writer) WriteComplex128(group, channel string, values []complex128) error {
	return w.writeValues(group, channel, DataTypeComplex128, values)
}

// WriteStrings appends string values to the named channel's pending buffer.
// String channels always trigger a fresh raw-data index on flush, since
// their size cannot be inferred from a previous segment's value count alone.
func (w *Writer) WriteStrings(group, channel string, values []string) error {
	return w.writeValues(group, channel, DataTypeString, values)
}

// ResetForNewFile marks every currently declared object as modified, so
// that the next flush re-declares the whole object model from scratch. A
// [RotatingWriter] calls this after switching to a fresh underlying file so
// that file stands on its own, with no dependency on segments in the
// previous file.
func (w *Writer) ResetForNewFile() {
	w.rootModified = true
	for _, g := range w.groups {
		g.modified = true
	}
	for _, cs := range w.channels {
		cs.propertiesModified = true
		cs.indexWritten = false
	}
	w.isFirstSegment = true
	w.lastWrittenSet = nil
	w.currentSegmentHasData = false
}

// currentWritten returns the channels with pending data, in creation order.
func (w *Writer) currentWritten() []*channelState {
	written := make([]*channelState, 0, len(w.channelOrder))
	for _, path := range w.channelOrder {
		cs := w.channels[path]
		if !cs.buffer.isEmpty() {
			written = append(written, cs)
		}
	}
	return written
}

func sameOrderedSet(a []*channelState, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i, cs := range a {
		if cs.path != b[i] {
			return false
		}
	}
	return true
}

// anyChannelPropertiesModified reports whether any channel currently has
// unflushed property changes.
func (w *Writer) anyChannelPropertiesModified() bool {
	for _, cs := range w.channels {
		if cs.propertiesModified {
			return true
		}
	}
	return false
}

func (w *Writer) anyGroupModified() bool {
	for _, g := range w.groups {
		if g.modified {
			return true
		}
	}
	return false
}

// Flush writes any pending channel data to disk, choosing between appending
// to the current segment and starting a new one. It is a no-op if nothing
// is buffered, this is not the first flush, and no file, group or channel
// property has changed since the last flush; property changes alone still
// write a new segment.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}

	written := w.currentWritten()

	propertyChanges := w.rootModified || w.anyGroupModified() || w.anyChannelPropertiesModified() || w.isFirstSegment
	newObjListRequired := w.isFirstSegment || !sameOrderedSet(written, w.lastWrittenSet)

	for _, cs := range written {
		cs.indexChangedThisFlush = !cs.indexWritten ||
			cs.dataType == DataTypeString ||
			cs.lastIndexDataType != cs.dataType ||
			cs.lastIndexValueCount != cs.buffer.numValues ||
			!slices.Contains(w.lastWrittenSet, cs.path)
	}

	anyIndexChanged := false
	for _, cs := range written {
		if cs.indexChangedThisFlush {
			anyIndexChanged = true
			break
		}
	}

	if len(written) == 0 && !propertyChanges {
		return nil
	}

	canAppend := len(written) > 0 && !propertyChanges && !newObjListRequired && !anyIndexChanged && w.currentSegmentHasData
	if canAppend {
		w.logger.Debugw("appending to current segment", "channels", len(written))
		return w.flushAppend(written)
	}

	w.logger.Debugw("starting new segment",
		"channels", len(written), "newObjList", newObjListRequired, "propertyChanges", propertyChanges)
	return w.flushNewSegment(written, newObjListRequired)
}

// flushAppend writes the pending raw data directly after the current
// segment's raw-data block and patches that segment's lead-in in place.
func (w *Writer) flushAppend(written []*channelState) error {
	var rawData bytes.Buffer
	for _, cs := range written {
		cs.buffer.writeTo(&rawData, w.order)
	}

	if _, err := w.dataFile.Write(rawData.Bytes()); err != nil {
		return errors.Join(ErrReadFailed, err)
	}

	w.currentRawDataSize += uint64(rawData.Len())

	if err := patchLeadInOffset(w.dataFile, w.order, w.currentDataLeadInOffset, w.currentMetadataSize+w.currentRawDataSize); err != nil {
		return err
	}

	for _, cs := range written {
		cs.lastIndexValueCount = cs.buffer.numValues
		cs.lastIndexDataType = cs.dataType
		cs.indexWritten = true
		cs.buffer.clear()
	}

	return nil
}

// flushNewSegment emits a fresh lead-in, metadata list, and raw-data block,
// mirroring the lead-in and metadata (but not the raw data) to the index
// file.
func (w *Writer) flushNewSegment(written []*channelState, newObjList bool) error {
	objects := w.composeMetadataList(written, newObjList)

	var metadata bytes.Buffer
	if err := writeUint32(&metadata, w.order, uint32(len(objects))); err != nil {
		return err
	}
	for _, obj := range objects {
		if err := w.writeMetadataObject(&metadata, obj); err != nil {
			return err
		}
	}

	var rawData bytes.Buffer
	for _, cs := range written {
		cs.buffer.writeTo(&rawData, w.order)
	}

	toc := tocContainsMetadata | tocContainsNewObjectList
	if len(written) > 0 {
		toc |= tocContainsRawData
	}
	if w.order == binary.BigEndian {
		toc |= tocIsBigEndian
	}
	if !newObjList {
		toc &^= tocContainsNewObjectList
	}

	dataLeadInOffset, err := currentOffset(w.dataFile)
	if err != nil {
		return err
	}

	if err := writeSegmentLeadIn(w.dataFile, tdmsMagicBytes, toc, segmentIncomplete, 0); err != nil {
		return err
	}
	if _, err := w.dataFile.Write(metadata.Bytes()); err != nil {
		return errors.Join(ErrReadFailed, err)
	}
	if _, err := w.dataFile.Write(rawData.Bytes()); err != nil {
		return errors.Join(ErrReadFailed, err)
	}

	metadataSize := uint64(metadata.Len())
	rawDataSize := uint64(rawData.Len())

	if err := patchLeadInOffset(w.dataFile, w.order, dataLeadInOffset, metadataSize+rawDataSize); err != nil {
		return err
	}
	if err := patchLeadInMetadataSize(w.dataFile, w.order, dataLeadInOffset, metadataSize); err != nil {
		return err
	}

	var indexLeadInOffset int64
	if w.indexFile != nil {
		indexLeadInOffset, err = currentOffset(w.indexFile)
		if err != nil {
			return err
		}
		if err := writeSegmentLeadIn(w.indexFile, tdmsIndexMagicBytes, toc, segmentIncomplete, 0); err != nil {
			return err
		}
		if _, err := w.indexFile.Write(metadata.Bytes()); err != nil {
			return errors.Join(ErrReadFailed, err)
		}
		if err := patchLeadInOffset(w.indexFile, w.order, indexLeadInOffset, metadataSize); err != nil {
			return err
		}
		if err := patchLeadInMetadataSize(w.indexFile, w.order, indexLeadInOffset, metadataSize); err != nil {
			return err
		}
	}

	w.currentDataLeadInOffset = dataLeadInOffset
	w.currentIndexLeadInOffset = indexLeadInOffset
	w.currentMetadataSize = metadataSize
	w.currentRawDataSize = rawDataSize
	w.currentSegmentHasData = len(written) > 0

	w.rootModified = false
	for _, g := range w.groups {
		g.modified = false
	}
	for _, cs := range w.channels {
		cs.propertiesModified = false
	}
	for _, cs := range written {
		cs.lastIndexValueCount = cs.buffer.numValues
		cs.lastIndexDataType = cs.dataType
		cs.indexWritten = true
		cs.buffer.clear()
	}

	w.isFirstSegment = false
	w.lastWrittenSet = make([]string, len(written))
	for i, cs := range written {
		w.lastWrittenSet[i] = cs.path
	}

	return nil
}

// metadataObject is one entry in a segment's composed metadata list.
type metadataObject struct {
	path       string
	properties map[string]Property
	channel    *channelState // nil for Root and Group objects
}

// composeMetadataList builds the ordered object list for the segment about
// to be written, following the rules in the object model's write-side
// planner: a full re-declaration when a new object list is required, or
// just the modified subset (plus every channel with data) otherwise.
func (w *Writer) composeMetadataList(written []*channelState, newObjList bool) []metadataObject {
	seen := make(map[string]bool)
	var objects []metadataObject

	add := func(path string, properties map[string]Property, cs *channelState) {
		if seen[path] {
			return
		}
		seen[path] = true
		objects = append(objects, metadataObject{path: path, properties: properties, channel: cs})
	}

	if newObjList {
		add("/", w.rootProperties, nil)
		for _, name := range w.groupOrder {
			g := w.groups[name]
			add(formatGroupPath(name), g.properties, nil)
		}
		for _, path := range w.channelOrder {
			cs := w.channels[path]
			add(path, cs.properties, cs)
		}
		return objects
	}

	if w.rootModified {
		add("/", w.rootProperties, nil)
	}
	for _, name := range w.groupOrder {
		g := w.groups[name]
		if g.modified {
			add(formatGroupPath(name), g.properties, nil)
		}
	}
	for _, path := range w.channelOrder {
		cs := w.channels[path]
		if cs.propertiesModified {
			add(path, cs.properties, cs)
		}
	}
	for _, cs := range written {
		add(cs.path, cs.properties, cs)
	}

	return objects
}

// writeMetadataObject writes one object's path, raw-data-index header, and
// property list.
func (w *Writer) writeMetadataObject(dst *bytes.Buffer, obj metadataObject) error {
	if err := writeString(dst, w.order, obj.path); err != nil {
		return err
	}

	if obj.channel == nil {
		if err := writeUint32(dst, w.order, rawIndexHeaderNoRawData); err != nil {
			return err
		}
	} else {
		cs := obj.channel
		switch {
		case cs.buffer.isEmpty():
			if err := writeUint32(dst, w.order, rawIndexHeaderNoRawData); err != nil {
				return err
			}
		case !cs.indexChangedThisFlush:
			if err := writeUint32(dst, w.order, rawIndexHeaderMatchesPreviousValue); err != nil {
				return err
			}
		default:
			if err := w.writeRawDataIndex(dst, cs); err != nil {
				return err
			}
		}
	}

	if err := writeUint32(dst, w.order, uint32(len(obj.properties))); err != nil {
		return err
	}
	for name, prop := range obj.properties {
		if err := writeString(dst, w.order, name); err != nil {
			return err
		}
		if err := writeUint32(dst, w.order, uint32(prop.TypeCode)); err != nil {
			return err
		}
		if err := writeValue(dst, w.order, prop.TypeCode, prop.Value); err != nil {
			return err
		}
	}

	return nil
}

// writeRawDataIndex writes a full (non-sentinel, non-DAQmx) raw-data index:
// an index length, data type, dimension, value count, and – for strings –
// the total byte size.
func (w *Writer) writeRawDataIndex(dst *bytes.Buffer, cs *channelState) error {
	indexLength := uint32(16)
	if cs.dataType == DataTypeString {
		indexLength = 20
	}

	if err := writeUint32(dst, w.order, indexLength); err != nil {
		return err
	}
	if err := writeUint32(dst, w.order, uint32(cs.dataType)); err != nil {
		return err
	}
	if err := writeUint32(dst, w.order, 1); err != nil { // array dimension, always 1
		return err
	}
	if err := writeUint64(dst, w.order, cs.buffer.numValues); err != nil {
		return err
	}
	if cs.dataType == DataTypeString {
		if err := writeUint64(dst, w.order, cs.buffer.byteLength()); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes any remaining buffered data and closes the underlying
// files. It is safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs error
	if err := w.flushIgnoringClosed(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if closer, ok := w.dataFile.(io.Closer); ok {
		errs = multierr.Append(errs, closer.Close())
	}
	if w.indexFile != nil {
		if closer, ok := w.indexFile.(io.Closer); ok {
			errs = multierr.Append(errs, closer.Close())
		}
	}

	return errs
}

// flushIgnoringClosed runs one last flush during Close, bypassing the
// already-closed guard in [Writer.Flush].
func (w *Writer) flushIgnoringClosed() error {
	w.closed = false
	defer func() { w.closed = true }()
	return w.Flush()
}

func currentOffset(w io.Writer) (int64, error) {
	seeker, ok := w.(io.Seeker)
	if !ok {
		return 0, errors.New("writer does not support seeking")
	}
	return seeker.Seek(0, io.SeekCurrent)
}

// writeSegmentLeadIn writes a 28-byte lead-in with the given magic tag, ToC
// bits, and size fields. Data files take tdmsMagicBytes ("TDSm"); the
// companion index file takes tdmsIndexMagicBytes ("TDSh"), matching what
// readSegmentLeadIn requires of a file opened with isIndex set.
func writeSegmentLeadIn(w io.Writer, magic []byte, toc uint32, nextSegmentOffset, rawDataOffset uint64) error {
	if _, err := w.Write(magic); err != nil {
		return err
	}
	if err := writeUint32(w, binary.LittleEndian, toc); err != nil {
		return err
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if toc&tocIsBigEndian != 0 {
		order = binary.BigEndian
	}

	if err := writeUint32(w, order, segmentVersion); err != nil {
		return err
	}
	if err := writeUint64(w, order, nextSegmentOffset); err != nil {
		return err
	}
	return writeUint64(w, order, rawDataOffset)
}

// patchLeadInOffset seeks back to a lead-in's next_segment_offset field,
// overwrites it, and restores the write position to the end of the stream.
func patchLeadInOffset(w io.WriteSeeker, order binary.ByteOrder, leadInOffset int64, value uint64) error {
	return patchLeadInField(w, order, leadInOffset+12, value)
}

// patchLeadInMetadataSize seeks back to a lead-in's raw_data_offset
// (metadata-size) field and overwrites it.
func patchLeadInMetadataSize(w io.WriteSeeker, order binary.ByteOrder, leadInOffset int64, value uint64) error {
	return patchLeadInField(w, order, leadInOffset+20, value)
}

// patchLeadInField overwrites one 8-byte size field within an
// already-written lead-in, then restores the stream's write position to
// where it was before the patch (always the end of the file, since lead-ins
// are only patched immediately after writing past them).
func patchLeadInField(w io.WriteSeeker, order binary.ByteOrder, fieldOffset int64, value uint64) error {
	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	if _, err := w.Seek(fieldOffset, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, 8)
	order.PutUint64(buf, value)

	if _, err := w.Write(buf); err != nil {
		return err
	}

	_, err = w.Seek(end, io.SeekStart)
	return err
}
