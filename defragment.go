package tdms

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Defragment reads the TDMS file at srcPath and writes an equivalent file at
// dstPath whose entire contents live in a single segment: every group's and
// channel's properties are re-declared once, and each channel's full data
// stream is written in one call, so the destination has no append-path
// segments and no matches-previous raw-data indices to chase.
//
// This is useful after many small incremental flushes have left a file with
// hundreds of small segments, each carrying its own lead-in and metadata
// overhead.
func Defragment(srcPath, dstPath string, opts ...WriterOption) error {
	return defragment(srcPath, dstPath, false, opts...)
}

// DefragmentParallel behaves like [Defragment], but reads each channel's
// full data stream concurrently (one goroutine per channel, via
// golang.org/x/sync/errgroup, each with its own [File] reader over
// srcPath) before writing them through the destination writer
// sequentially. Only the read side is concurrent: multiple [File] readers
// over the same source are safe, but a [Writer] is not safe for concurrent
// use.
//
// For both functions, channels are written in the order of iterating the
// source's Groups and Channels maps, which is not the order in which they
// appear in the source file.
func DefragmentParallel(srcPath, dstPath string, opts ...WriterOption) error {
	return defragment(srcPath, dstPath, true, opts...)
}

// channelRef names one channel to be copied during defragmentation.
type channelRef struct {
	groupName   string
	channelName string
	channel     Channel
}

func defragment(srcPath, dstPath string, parallel bool, opts ...WriterOption) error {
	src, err := Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := CreateFile(dstPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstPath, err)
	}

	for name, prop := range src.Properties {
		if err := dst.SetFileProperty(name, prop.TypeCode, prop.Value); err != nil {
			return err
		}
	}

	channelRefs, err := declareGroupsAndChannels(src, dst)
	if err != nil {
		return err
	}

	if parallel {
		if err := copyChannelsParallel(srcPath, channelRefs, dst); err != nil {
			return err
		}
	} else {
		for _, ref := range channelRefs {
			if err := copyChannelData(&ref.channel, dst, ref.groupName, ref.channelName); err != nil {
				return fmt.Errorf("failed to copy channel %s/%s: %w", ref.groupName, ref.channelName, err)
			}
		}
	}

	if err := dst.Flush(); err != nil {
		return err
	}
	return dst.Close()
}

// declareGroupsAndChannels re-declares every group's and channel's
// properties on dst and returns the ordered list of channels to copy.
func declareGroupsAndChannels(src *File, dst *Writer) ([]channelRef, error) {
	var channelRefs []channelRef

	for groupName, group := range src.Groups {
		for name, prop := range group.Properties {
			if err := dst.SetGroupProperty(groupName, name, prop.TypeCode, prop.Value); err != nil {
				return nil, err
			}
		}

		for channelName, ch := range group.Channels {
			if err := dst.CreateChannel(groupName, channelName, ch.DataType); err != nil {
				return nil, err
			}
			for name, prop := range ch.Properties {
				if err := dst.SetChannelProperty(groupName, channelName, name, prop.TypeCode, prop.Value); err != nil {
					return nil, err
				}
			}
			channelRefs = append(channelRefs, channelRef{groupName, channelName, ch})
		}
	}

	return channelRefs, nil
}

// copyChannelsParallel reads every channel's full data stream concurrently,
// each through its own File opened on srcPath, then writes each into dst
// sequentially in channelRefs order.
func copyChannelsParallel(srcPath string, channelRefs []channelRef, dst *Writer) error {
	readResults := make([]any, len(channelRefs))

	var g errgroup.Group
	for i, ref := range channelRefs {
		i, ref := i, ref
		g.Go(func() error {
			src, err := Open(srcPath)
			if err != nil {
				return fmt.Errorf("failed to open source file %s: %w", srcPath, err)
			}
			defer src.Close()

			ch := src.Groups[ref.groupName].Channels[ref.channelName]
			values, err := readChannelData(&ch)
			if err != nil {
				return fmt.Errorf("failed to read channel %s/%s: %w", ref.groupName, ref.channelName, err)
			}
			readResults[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, ref := range channelRefs {
		if err := writeChannelValues(dst, ref.groupName, ref.channelName, ref.channel.DataType, readResults[i]); err != nil {
			return fmt.Errorf("failed to write channel %s/%s: %w", ref.groupName, ref.channelName, err)
		}
	}

	return nil
}

// readChannelData reads a channel's entire data stream, dispatching on its
// declared data type, and returns it as the matching slice type boxed in an
// any so it can be threaded through a result slice shared across
// goroutines.
func readChannelData(ch *Channel) (any, error) {
	switch ch.DataType {
	case DataTypeInt8:
		return ch.ReadDataInt8All()
	case DataTypeInt16:
		return ch.ReadDataInt16All()
	case DataTypeInt32:
		return ch.ReadDataInt32All()
	case DataTypeInt64:
		return ch.ReadDataInt64All()
	case DataTypeUint8:
		return ch.ReadDataUint8All()
	case DataTypeUint16:
		return ch.ReadDataUint16All()
	case DataTypeUint32:
		return ch.ReadDataUint32All()
	case DataTypeUint64:
		return ch.ReadDataUint64All()
	case DataTypeFloat32:
		return ch.ReadDataFloat32All()
	case DataTypeFloat64:
		return ch.ReadDataFloat64All()
	case DataTypeFloat128:
		return ch.ReadDataFloat128All()
	case DataTypeString:
		return ch.ReadDataStringAll()
	case DataTypeBool:
		return ch.ReadDataBoolAll()
	case DataTypeTimestamp:
		return ch.ReadDataTimestampAll()
	case DataTypeComplex64:
		return ch.ReadDataComplex64All()
	case DataTypeComplex128:
		return ch.ReadDataComplex128All()
	default:
		return nil, fmt.Errorf("%w: cannot defragment channel of type %s", ErrUnsupportedType, ch.DataType)
	}
}

// writeChannelValues writes a slice previously produced by readChannelData
// to dst, dispatching on the declared data type.
func writeChannelValues(dst *Writer, group, channel string, dataType DataType, values any) error {
	switch dataType {
	case DataTypeInt8:
		return dst.WriteInt8(group, channel, values.([]int8))
	case DataTypeInt16:
		return dst.WriteInt16(group, channel, values.([]int16))
	case DataTypeInt32:
		return dst.WriteInt32(group, channel, values.([]int32))
	case DataTypeInt64:
		return dst.WriteInt64(group, channel, values.([]int64))
	case DataTypeUint8:
		return dst.WriteUint8(group, channel, values.([]uint8))
	case DataTypeUint16:
		return dst.WriteUint16(group, channel, values.([]uint16))
	case DataTypeUint32:
		return dst.WriteUint32(group, channel, values.([]uint32))
	case DataTypeUint64:
		return dst.WriteUint64(group, channel, values.([]uint64))
	case DataTypeFloat32:
		return dst.WriteFloat32(group, channel, values.([]float32))
	case DataTypeFloat64:
		return dst.WriteFloat64(group, channel, values.([]float64))
	case DataTypeFloat128:
		return dst.WriteFloat128(group, channel, values.([]Float128))
	case DataTypeString:
		return dst.WriteStrings(group, channel, values.([]string))
	case DataTypeBool:
		return dst.WriteBool(group, channel, values.([]bool))
	case DataTypeTimestamp:
		return dst.WriteTimestamp(group, channel, values.([]Timestamp))
	case DataTypeComplex64:
		return dst.WriteComplex64(group, channel, values.([]complex64))
	case DataTypeComplex128:
		return dst.WriteComplex128(group, channel, values.([]complex128))
	default:
		return fmt.Errorf("%w: cannot defragment channel of type %s", ErrUnsupportedType, dataType)
	}
}

// copyChannelData reads a channel's entire data stream and writes it to dst
// in a single call, dispatching on the channel's declared data type.
func copyChannelData(ch *Channel, dst *Writer, group, channel string) error {
	values, err := readChannelData(ch)
	if err != nil {
		return err
	}
	return writeChannelValues(dst, group, channel, ch.DataType, values)
}
