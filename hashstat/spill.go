package hashstat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

const spillBufferBytes = 1 << 16

// appendSpill appends recs to the spill file at path. Each call writes an
// independent zstd frame when compress is set; readers see one stream.
func appendSpill(path string, recs []HashRecord, compress bool) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpillWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrSpillWrite, cerr)
		}
	}()

	bw := bufio.NewWriterSize(f, spillBufferBytes)
	if !compress {
		if err := writeRecords(bw, recs); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSpillWrite, path, err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSpillWrite, path, err)
		}
		return nil
	}

	zw, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpillWrite, err)
	}
	if err := writeRecords(zw, recs); err != nil {
		zw.Close()
		return fmt.Errorf("%w: %s: %v", ErrSpillWrite, path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSpillWrite, path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSpillWrite, path, err)
	}
	return nil
}

// readSpill loads exactly expect records from the spill file at path.
func readSpill(path string, compress bool, expect uint64) ([]HashRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpillRead, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, spillBufferBytes)
	if compress {
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSpillRead, err)
		}
		defer zr.Close()
		r = zr
	}

	recs, err := readRecords(r, expect)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpillRead, path, err)
	}
	return recs, nil
}

func writeRecords(w io.Writer, recs []HashRecord) error {
	var buf [RecordBytes]byte
	for _, r := range recs {
		PutRecord(buf[:], r)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// readRecordsPrealloc bounds the up front allocation of readRecords; n comes
// from a header and is not trusted until the records have been read.
const readRecordsPrealloc = 1 << 16

// readRecords reads n records. A short stream is io.ErrUnexpectedEOF.
func readRecords(r io.Reader, n uint64) ([]HashRecord, error) {
	recs := make([]HashRecord, 0, min(n, readRecordsPrealloc))
	var buf [RecordBytes]byte
	for i := uint64(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		recs = append(recs, GetRecord(buf[:]))
	}
	return recs, nil
}
