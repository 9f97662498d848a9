package tdms

import (
	"fmt"
	"io"
	"os"
)

// RotatingWriter wraps a [Writer], starting a fresh underlying file once the
// current one has grown past a configured byte cap. The check runs before
// each write and looks only at the bytes already in the data file, so a
// file can end up larger than the cap by the data flushed after the last
// check; buffered and incoming values are not counted. Each rotated file stands
// on its own: rotation flushes the outgoing file, opens a new one, and
// re-declares every group, channel, and property so that opening the new
// file in isolation yields the same object model.
type RotatingWriter struct {
	basePath     string
	maxSizeBytes int64
	fileIndex    int
	writerOpts   []WriterOption

	writer   *Writer
	dataFile *os.File
}

// NewRotatingWriter creates a [RotatingWriter] writing to basePath (and
// numbered siblings basePath.1, basePath.2, ...) once a file has grown past
// maxSizeBytes.
func NewRotatingWriter(basePath string, maxSizeBytes int64, opts ...WriterOption) (*RotatingWriter, error) {
	rw := &RotatingWriter{
		basePath:     basePath,
		maxSizeBytes: maxSizeBytes,
		writerOpts:   opts,
	}

	if err := rw.openAt(0); err != nil {
		return nil, err
	}

	return rw, nil
}

func rotatedPath(basePath string, index int) string {
	if index == 0 {
		return basePath
	}
	return fmt.Sprintf("%s.%d", basePath, index)
}

func (rw *RotatingWriter) openAt(index int) error {
	path := rotatedPath(rw.basePath, index)

	dataFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create data file %s: %w", path, err)
	}

	indexFile, err := os.Create(path + "_index")
	if err != nil {
		_ = dataFile.Close()
		return fmt.Errorf("failed to create index file for %s: %w", path, err)
	}

	rw.fileIndex = index
	rw.dataFile = dataFile
	rw.writer = NewWriter(dataFile, indexFile, rw.writerOpts...)

	return nil
}

// fileSize returns the current data file's byte length.
func (rw *RotatingWriter) fileSize() (int64, error) {
	info, err := rw.dataFile.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// rotateIfNeeded flushes and switches to a new file if the current one has
// grown past the configured cap. The new file is primed with every group,
// channel, and property declared so far via [Writer.ResetForNewFile].
func (rw *RotatingWriter) rotateIfNeeded() error {
	size, err := rw.fileSize()
	if err != nil {
		return err
	}
	if size <= rw.maxSizeBytes {
		return nil
	}

	oldWriter := rw.writer
	if err := oldWriter.Flush(); err != nil {
		return err
	}

	if err := rw.openAt(rw.fileIndex + 1); err != nil {
		return err
	}

	// Carry over every declared object so the new file is self-describing.
	rw.writer.rootProperties = oldWriter.rootProperties
	rw.writer.groups = oldWriter.groups
	rw.writer.groupOrder = oldWriter.groupOrder
	rw.writer.channels = oldWriter.channels
	rw.writer.channelOrder = oldWriter.channelOrder
	for _, cs := range rw.writer.channels {
		cs.buffer.clear()
	}
	rw.writer.ResetForNewFile()

	return oldWriter.closeFilesOnly()
}

// SetFileProperty sets a root-level (file) property.
func (rw *RotatingWriter) SetFileProperty(name string, dataType DataType, value any) error {
	return rw.writer.SetFileProperty(name, dataType, value)
}

// SetGroupProperty sets a property on a group, creating the group if needed.
func (rw *RotatingWriter) SetGroupProperty(group, name string, dataType DataType, value any) error {
	return rw.writer.SetGroupProperty(group, name, dataType, value)
}

// CreateChannel declares a channel with a fixed data type.
func (rw *RotatingWriter) CreateChannel(group, channel string, dataType DataType) error {
	return rw.writer.CreateChannel(group, channel, dataType)
}

// SetChannelProperty sets a property on an already-created channel.
func (rw *RotatingWriter) SetChannelProperty(group, channel, name string, dataType DataType, value any) error {
	return rw.writer.SetChannelProperty(group, channel, name, dataType, value)
}

// WriteFloat64 appends float64 values to the named channel, rotating to a
// new file first if the current one has grown past the configured cap.
func (rw *RotatingWriter) WriteFloat64(group, channel string, values []float64) error {
	if err := rw.rotateIfNeeded(); err != nil {
		return err
	}
	return rw.writer.WriteFloat64(group, channel, values)
}

// WriteInt32 appends int32 values to the named channel, rotating to a new
// file first if the current one has grown past the configured cap.
func (rw *RotatingWriter) WriteInt32(group, channel string, values []int32) error {
	if err := rw.rotateIfNeeded(); err != nil {
		return err
	}
	return rw.writer.WriteInt32(group, channel, values)
}

// WriteStrings appends string values to the named channel, rotating to a
// new file first if the current one has grown past the configured cap.
func (rw *RotatingWriter) WriteStrings(group, channel string, values []string) error {
	if err := rw.rotateIfNeeded(); err != nil {
		return err
	}
	return rw.writer.WriteStrings(group, channel, values)
}

// Flush flushes the current underlying writer.
func (rw *RotatingWriter) Flush() error {
	return rw.writer.Flush()
}

// Close flushes and closes the current underlying writer.
func (rw *RotatingWriter) Close() error {
	return rw.writer.Close()
}

// closeFilesOnly closes a writer's underlying files without running a final
// flush, since the caller (rotateIfNeeded) has already flushed it and is
// discarding it in favour of a freshly opened one.
func (w *Writer) closeFilesOnly() error {
	w.closed = true
	var err error
	if closer, ok := w.dataFile.(io.Closer); ok {
		err = closer.Close()
	}
	if w.indexFile != nil {
		if closer, ok := w.indexFile.(io.Closer); ok {
			if cerr := closer.Close(); err == nil {
				err = cerr
			}
		}
	}
	return err
}
