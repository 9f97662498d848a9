package tdms

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// integrityLedgerSuffix names the sidecar file written by
// [WriteIntegrityLedger] next to a TDMS data file.
const integrityLedgerSuffix = ".tdms_integrity"

// WriteIntegrityLedger computes a streaming xxHash64 checksum of the file
// at path and writes it to a sidecar file at path+".tdms_integrity", one
// line of the form "<hex-checksum> <byte-length>". This is a lightweight,
// regenerable alternative to keeping the whole file around twice just to
// detect silent corruption or incomplete copies.
func WriteIntegrityLedger(path string) error {
	checksum, size, err := hashFile(path)
	if err != nil {
		return err
	}

	ledgerPath := path + integrityLedgerSuffix
	line := fmt.Sprintf("%016x %d\n", checksum, size)
	if err := os.WriteFile(ledgerPath, []byte(line), 0o644); err != nil {
		return fmt.Errorf("failed to write integrity ledger %s: %w", ledgerPath, err)
	}

	return nil
}

// VerifyIntegrity recomputes the checksum of the file at path and compares
// it against the ledger written by [WriteIntegrityLedger]. Returns an error
// wrapping [ErrInvalidFileFormat] if the file has been modified or
// truncated since the ledger was written, or if the ledger is malformed. If
// no ledger exists, the returned error wraps the error from reading it.
func VerifyIntegrity(path string) error {
	ledgerPath := path + integrityLedgerSuffix

	contents, err := os.ReadFile(ledgerPath)
	if err != nil {
		return fmt.Errorf("failed to read integrity ledger %s: %w", ledgerPath, err)
	}

	fields := strings.Fields(string(contents))
	if len(fields) != 2 {
		return fmt.Errorf("%w: malformed integrity ledger %s", ErrInvalidFileFormat, ledgerPath)
	}

	wantChecksum, err := strconv.ParseUint(fields[0], 16, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed checksum in %s", ErrInvalidFileFormat, ledgerPath)
	}
	wantSize, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed size in %s", ErrInvalidFileFormat, ledgerPath)
	}

	gotChecksum, gotSize, err := hashFile(path)
	if err != nil {
		return err
	}

	if gotSize != wantSize || gotChecksum != wantChecksum {
		return fmt.Errorf("%w: %s does not match its integrity ledger", ErrInvalidFileFormat, path)
	}

	return nil
}

func hashFile(path string) (uint64, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	digest := xxhash.New()
	written, err := io.Copy(digest, bufio.NewReaderSize(f, 256*1024))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return digest.Sum64(), written, nil
}
