package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"libguestfs.org/libnbd"
)

const DefaultChunkSize = 4 * 1024 * 1024

var (
	ErrSizeMismatch    = errors.New("export size does not match expected size")
	ErrContentMismatch = errors.New("export content does not match expected content")
)

// NbdOperations is the subset of a libnbd handle the verifier needs.
type NbdOperations interface {
	GetSize() (uint64, error)
	Pread(buf []byte, offset uint64, optargs *libnbd.PreadOptargs) error
	Close() *libnbd.LibnbdError
}

// Connect opens a libnbd handle to uri, e.g. nbd+unix:///?socket=/run/nbd.sock.
func Connect(uri string) (NbdOperations, error) {
	handle, err := libnbd.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create libnbd handle: %w", err)
	}
	if err := handle.ConnectUri(uri); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", uri, err)
	}
	return handle, nil
}

// Expected describes what an export should contain.
type Expected interface {
	Size() (uint64, error)
	ReadAt(buf []byte, offset uint64) error
}

// Pattern expects every byte to equal Value.
type Pattern struct {
	Length uint64
	Value  byte
}

func (p Pattern) Size() (uint64, error) {
	return p.Length, nil
}

func (p Pattern) ReadAt(buf []byte, offset uint64) error {
	for i := range buf {
		buf[i] = p.Value
	}
	return nil
}

// Image expects the export to match a local file byte for byte.
type Image struct {
	f *os.File
}

func OpenImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open expected image: %w", err)
	}
	return &Image{f: f}, nil
}

func (i *Image) Size() (uint64, error) {
	info, err := i.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat expected image: %w", err)
	}
	return uint64(info.Size()), nil
}

func (i *Image) ReadAt(buf []byte, offset uint64) error {
	if _, err := i.f.ReadAt(buf, int64(offset)); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read expected image at offset %d: %w", offset, err)
	}
	return nil
}

func (i *Image) Close() error {
	return i.f.Close()
}

type Report struct {
	Size      uint64
	Chunks    int
	BytesRead uint64
	Duration  time.Duration
	// MismatchOffset is the first differing byte, or -1.
	MismatchOffset int64
}

// Export reads the whole export in chunks of chunkSize and compares it with
// expected. A content mismatch returns the report together with
// ErrContentMismatch.
func Export(ctx context.Context, handle NbdOperations, expected Expected, chunkSize uint64) (*Report, error) {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	start := time.Now()
	report := &Report{MismatchOffset: -1}

	size, err := handle.GetSize()
	if err != nil {
		return nil, fmt.Errorf("failed to get export size: %w", err)
	}
	report.Size = size
	want, err := expected.Size()
	if err != nil {
		return nil, err
	}
	if size != want {
		return report, fmt.Errorf("%w: export has %d bytes, expected %d", ErrSizeMismatch, size, want)
	}

	got := make([]byte, chunkSize)
	exp := make([]byte, chunkSize)
	for offset := uint64(0); offset < size; {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n := chunkSize
		if size-offset < n {
			n = size - offset
		}
		if err := handle.Pread(got[:n], offset, nil); err != nil {
			return report, fmt.Errorf("failed to read from nbd at offset %d: %w", offset, err)
		}
		if err := expected.ReadAt(exp[:n], offset); err != nil {
			return report, err
		}
		report.Chunks++
		report.BytesRead += n
		if !bytes.Equal(got[:n], exp[:n]) {
			for i := uint64(0); i < n; i++ {
				if got[i] != exp[i] {
					report.MismatchOffset = int64(offset + i)
					break
				}
			}
			report.Duration = time.Since(start)
			return report, fmt.Errorf("%w at offset %d", ErrContentMismatch, report.MismatchOffset)
		}
		slog.Debug("Verified chunk", "offset", offset, "length", n)
		offset += n
	}
	report.Duration = time.Since(start)
	slog.Info("Export verified", "size", size, "chunks", report.Chunks, "duration", report.Duration)
	return report, nil
}
