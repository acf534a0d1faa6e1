package fakevddk

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type preadFunc func(fd int, p []byte, offset int64) (int, error)

// fileSource serves reads from the backing image with raw pread(2), which may
// transfer fewer bytes than asked for.
type fileSource struct {
	f     *os.File
	pread preadFunc
}

var _ source = (*fileSource)(nil)

func openFileSource(path string) (*fileSource, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackingFileOpen, err)
	}
	return &fileSource{f: f, pread: unix.Pread}, nil
}

func (s *fileSource) size() (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(s.f.Fd()), &st); err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", s.f.Name(), err)
	}
	return uint64(st.Size), nil
}

func (s *fileSource) readAt(buf []byte, offset uint64) error {
	fd := int(s.f.Fd())
	for len(buf) > 0 {
		n, err := s.pread(fd, buf, int64(offset))
		if err != nil {
			return fmt.Errorf("%w at offset %d: %w", ErrSystemIO, offset, err)
		}
		if n == 0 {
			return fmt.Errorf("%w at offset %d with %d bytes left", ErrShortRead, offset, len(buf))
		}
		buf = buf[n:]
		offset += uint64(n)
	}
	return nil
}

func (s *fileSource) close() error {
	return s.f.Close()
}

// syntheticSource has no backing store: every byte reads as SyntheticPattern.
type syntheticSource struct{}

var _ source = syntheticSource{}

func (syntheticSource) size() (uint64, error) {
	return SyntheticSize, nil
}

func (syntheticSource) readAt(buf []byte, offset uint64) error {
	for i := range buf {
		buf[i] = SyntheticPattern
	}
	return nil
}

func (syntheticSource) close() error {
	return nil
}
