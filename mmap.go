package tdms

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// mmapReader adapts a memory-mapped region to [io.ReadSeeker] via
// bytes.Reader, so it can be passed to [New] exactly like any other
// in-memory byte source.
type mmapReader struct {
	*bytes.Reader
	region mmap.MMap
}

// Close unmaps the underlying region. Safe to call even if the [File] built
// on top of it was opened via [New] (whose own Close is a no-op for
// non-os.File readers), so callers should close the returned reader
// themselves once done with the file.
func (r *mmapReader) Close() error {
	return r.region.Unmap()
}

// OpenMmap opens the TDMS file at path by memory-mapping it read-only,
// instead of going through the regular buffered os.File read path. This
// avoids copying the file through the page cache twice for very large files
// that are read close to sequentially. The caller must call the returned
// reader's Close to release the mapping once done with the [File].
func OpenMmap(path string) (*File, *mmapReader, error) {
	osFile, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer osFile.Close()

	info, err := osFile.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	region, err := mmap.Map(osFile, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}

	reader := &mmapReader{Reader: bytes.NewReader(region), region: region}

	f, err := New(reader, false, info.Size())
	if err != nil {
		_ = region.Unmap()
		return nil, nil, err
	}

	return f, reader, nil
}
