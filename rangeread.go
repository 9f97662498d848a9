package tdms

import (
	"errors"
	"fmt"
	"io"
)

// rangeReadData reads the half-open range [start, start+count) of a
// channel's values, walking its data chunks in order and skipping any chunk
// that falls entirely outside the requested range. This is the shared
// engine behind every typed RangeRead* method.
func rangeReadData[T any](ch *Channel, start, count uint64, dataType DataType, interpret interpreter[T]) ([]T, error) {
	if start+count > ch.totalNumValues {
		return nil, fmt.Errorf("%w: range [%d, %d) exceeds channel length %d", ErrNotFound, start, start+count, ch.totalNumValues)
	}

	result := make([]T, 0, count)
	if count == 0 {
		return result, nil
	}

	r := ch.f.f
	dataSize := dataType.Size()

	var consumed uint64 // values seen across all chunks so far, before this chunk
	end := start + count

	for _, chunk := range ch.dataChunks {
		chunkStart := consumed
		chunkEnd := consumed + chunk.numValues
		consumed = chunkEnd

		if chunkEnd <= start || chunkStart >= end {
			continue
		}

		// The portion of this chunk that overlaps [start, end).
		wantFrom := max(start, chunkStart) - chunkStart
		wantTo := min(end, chunkEnd) - chunkStart

		if dataType == DataTypeString {
			values, err := rangeReadStrings(r, chunk, wantFrom, wantTo, interpret)
			if err != nil {
				return nil, err
			}
			result = append(result, values...)
			continue
		}

		if chunk.isInterleaved {
			values, err := rangeReadInterleavedFixed(r, chunk, dataSize, wantFrom, wantTo, interpret)
			if err != nil {
				return nil, err
			}
			result = append(result, values...)
			continue
		}

		seekTo := chunk.offset + int64(wantFrom)*int64(dataSize)
		if _, err := r.Seek(seekTo, io.SeekStart); err != nil {
			return nil, err
		}

		buf := make([]byte, (wantTo-wantFrom)*uint64(dataSize))
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}

		for i := uint64(0); i < wantTo-wantFrom; i++ {
			result = append(result, interpret(buf[i*uint64(dataSize):(i+1)*uint64(dataSize)], chunk.order))
		}
	}

	return result, nil
}

func rangeReadInterleavedFixed[T any](r io.ReadSeeker, chunk dataChunk, dataSize int, from, to uint64, interpret interpreter[T]) ([]T, error) {
	if dataSize == 0 {
		return nil, fmt.Errorf("%w: interleaved data chunks cannot contain variable-length data types", ErrInvalidFileFormat)
	}

	result := make([]T, 0, to-from)
	base := chunk.offset + int64(from)*(int64(dataSize)+chunk.stride)

	if _, err := r.Seek(base, io.SeekStart); err != nil {
		return nil, err
	}

	buf := make([]byte, dataSize)
	for i := from; i < to; i++ {
		if i > from {
			if _, err := r.Seek(chunk.stride, io.SeekCurrent); err != nil {
				return nil, err
			}
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}
		result = append(result, interpret(buf, chunk.order))
	}

	return result, nil
}

// rangeReadStrings re-reads a chunk's cumulative offset table and slices out
// only the requested sub-range of strings.
func rangeReadStrings[T any](r io.ReadSeeker, chunk dataChunk, from, to uint64, interpret interpreter[T]) ([]T, error) {
	if _, err := r.Seek(chunk.offset, io.SeekStart); err != nil {
		return nil, err
	}

	offsetBytes := make([]byte, chunk.numValues*4)
	if _, err := io.ReadFull(r, offsetBytes); err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	offsets := make([]uint32, chunk.numValues+1)
	for i := range chunk.numValues {
		offsets[i+1] = chunk.order.Uint32(offsetBytes[i*4:])
	}

	payloadStart := chunk.offset + int64(len(offsetBytes))

	result := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		strStart := int64(offsets[i])
		strEnd := int64(offsets[i+1])

		if _, err := r.Seek(payloadStart+strStart, io.SeekStart); err != nil {
			return nil, err
		}

		buf := make([]byte, strEnd-strStart)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Join(ErrReadFailed, err)
		}

		result = append(result, interpret(buf, chunk.order))
	}

	return result, nil
}

// RangeReadInt32 reads count values starting at index start.
func (ch *Channel) RangeReadInt32(start, count uint64) ([]int32, error) {
	return rangeReadData(ch, start, count, DataTypeInt32, interpretInt32)
}

// RangeReadInt64 reads count values starting at index start.
func (ch *Channel) RangeReadInt64(start, count uint64) ([]int64, error) {
	return rangeReadData(ch, start, count, DataTypeInt64, interpretInt64)
}

// RangeReadFloat32 reads count values starting at index start.
func (ch *Channel) RangeReadFloat32(start, count uint64) ([]float32, error) {
	return rangeReadData(ch, start, count, DataTypeFloat32, interpretFloat32)
}

// RangeReadFloat64 reads count values starting at index start.
func (ch *Channel) RangeReadFloat64(start, count uint64) ([]float64, error) {
	return rangeReadData(ch, start, count, DataTypeFloat64, interpretFloat64)
}

// RangeReadString reads count values starting at index start.
func (ch *Channel) RangeReadString(start, count uint64) ([]string, error) {
	return rangeReadData(ch, start, count, DataTypeString, interpretString)
}

// RangeReadTimestamp reads count values starting at index start.
func (ch *Channel) RangeReadTimestamp(start, count uint64) ([]Timestamp, error) {
	return rangeReadData(ch, start, count, DataTypeTimestamp, interpretTimestamp)
}

// Cursor tracks a restartable position within a channel's data, used to
// drive chunked consumption without re-deriving the read range by hand each
// time. It is not safe for concurrent use.
type Cursor struct {
	ch       *Channel
	position uint64
}

// NewCursor creates a [Cursor] positioned at the start of the channel.
func NewCursor(ch *Channel) *Cursor {
	return &Cursor{ch: ch}
}

// Seek moves the cursor to an absolute value index.
func (c *Cursor) Seek(position uint64) {
	c.position = position
}

// Progress returns the cursor's position as a fraction of the channel's
// total value count, in [0, 1]. Returns 1 if the channel is empty.
func (c *Cursor) Progress() float64 {
	if c.ch.totalNumValues == 0 {
		return 1
	}
	return float64(c.position) / float64(c.ch.totalNumValues)
}

// NextFloat64 reads up to batchSize values starting at the cursor and
// advances it. Returns an empty slice once the cursor reaches the end.
func (c *Cursor) NextFloat64(batchSize uint64) ([]float64, error) {
	if c.position >= c.ch.totalNumValues {
		return nil, nil
	}
	count := min(batchSize, c.ch.totalNumValues-c.position)
	values, err := c.ch.RangeReadFloat64(c.position, count)
	if err != nil {
		return nil, err
	}
	c.position += count
	return values, nil
}

// NextInt32 reads up to batchSize values starting at the cursor and advances
// it. Returns an empty slice once the cursor reaches the end.
func (c *Cursor) NextInt32(batchSize uint64) ([]int32, error) {
	if c.position >= c.ch.totalNumValues {
		return nil, nil
	}
	count := min(batchSize, c.ch.totalNumValues-c.position)
	values, err := c.ch.RangeReadInt32(c.position, count)
	if err != nil {
		return nil, err
	}
	c.position += count
	return values, nil
}
