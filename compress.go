package tdms

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// compressedExportSuffix names the file written by [ExportCompressed].
const compressedExportSuffix = ".zst"

// ExportCompressed writes a zstd-compressed copy of the TDMS file at path to
// path+".zst", for long-term archival of data files that are rarely read
// but expensive to keep around uncompressed. It does not touch the
// companion index file.
func ExportCompressed(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	dstPath := path + compressedExportSuffix
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	defer dst.Close()

	encoder, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		_ = encoder.Close()
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}

	return encoder.Close()
}

// ImportCompressed reverses [ExportCompressed], decompressing the zstd
// archive at archivePath into a fresh file at dstPath.
func ImportCompressed(archivePath, dstPath string) error {
	src, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", archivePath, err)
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, decoder); err != nil {
		return fmt.Errorf("failed to decompress %s: %w", archivePath, err)
	}

	return nil
}
