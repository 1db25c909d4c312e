package hashstat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Index file layout:
//
//	0:4   magic "HSIX"
//	4     format version
//	5     k
//	6     sort status
//	7     padding
//	8:16  record count (big endian)
//	16:   record count * RecordBytes records
const (
	IndexMagic             = "HSIX"
	IndexVersion     uint8 = 1
	IndexHeaderBytes       = 16
)

// SortStatus declares the record order of an index file.
type SortStatus uint8

const (
	SortNone   SortStatus = 0
	SortPrefix SortStatus = 1
	SortKey    SortStatus = 2
)

// IndexFileHeader is the decoded fixed size header of an index file.
type IndexFileHeader struct {
	Version    uint8
	K          uint8
	SortStatus SortStatus
	Count      uint64
}

func encodeIndexHeader(b []byte, h IndexFileHeader) {
	copy(b[0:4], IndexMagic)
	b[4] = h.Version
	b[5] = h.K
	b[6] = uint8(h.SortStatus)
	b[7] = 0
	binary.BigEndian.PutUint64(b[8:16], h.Count)
}

func decodeIndexHeader(b []byte) (IndexFileHeader, error) {
	if string(b[0:4]) != IndexMagic {
		return IndexFileHeader{}, ErrBadMagic
	}
	h := IndexFileHeader{
		Version:    b[4],
		K:          b[5],
		SortStatus: SortStatus(b[6]),
		Count:      binary.BigEndian.Uint64(b[8:16]),
	}
	if h.Version != IndexVersion {
		return IndexFileHeader{}, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	if h.SortStatus > SortKey {
		return IndexFileHeader{}, fmt.Errorf("%w: %d", ErrBadSortStatus, h.SortStatus)
	}
	return h, nil
}

// WriteIndex writes ix in index file format. A stale index is written as
// unsorted.
func WriteIndex(w io.Writer, ix *Index) error {
	status := SortPrefix
	if ix.stale {
		status = SortNone
	}
	var hdr [IndexHeaderBytes]byte
	encodeIndexHeader(hdr[:], IndexFileHeader{
		Version: IndexVersion, K: uint8(ix.k), SortStatus: status, Count: uint64(len(ix.records)),
	})
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	return writeRecords(w, ix.records)
}

// ReadIndex reads an index in index file format. The declared sort status is
// informational only: record order is checked against the shortcut width this
// reader derives and the records are re-sorted when it does not match.
func ReadIndex(r io.Reader) (*Index, error) {
	var hdr [IndexHeaderBytes]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short header", ErrIndexTruncated)
		}
		return nil, fmt.Errorf("%w: %v", ErrIndexFileRead, err)
	}
	h, err := decodeIndexHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	recs, err := readRecords(r, h.Count)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d records", ErrIndexTruncated, h.Count)
		}
		return nil, fmt.Errorf("%w: %v", ErrIndexFileRead, err)
	}
	return NewIndex(int(h.K), recs)
}

// WriteIndexFile persists ix at path. The file is written under a temporary
// name and renamed into place, so a failed write never leaves a partial index
// at path.
func WriteIndexFile(path string, ix *Index) (err error) {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFileWrite, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriterSize(f, spillBufferBytes)
	if err = WriteIndex(bw, ix); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFileWrite, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFileWrite, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFileWrite, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFileWrite, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrIndexFileWrite, err)
	}
	return nil
}

// ReadIndexFile loads the index persisted at path. The file size is checked
// against the header's record count before any record is read.
func ReadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexFileRead, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexFileRead, err)
	}
	var hdr [IndexHeaderBytes]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %s: short header", ErrIndexTruncated, path)
	}
	h, err := decodeIndexHeader(hdr[:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if h.Count > uint64(fi.Size()-IndexHeaderBytes)/RecordBytes {
		return nil, fmt.Errorf("%w: %s: %d bytes for %d records",
			ErrIndexTruncated, path, fi.Size(), h.Count)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexFileRead, err)
	}
	return ReadIndex(bufio.NewReaderSize(f, spillBufferBytes))
}
