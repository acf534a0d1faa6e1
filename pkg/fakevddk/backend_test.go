package fakevddk

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const testImageSize = 64*1024 + 123

func writeTestImage(t *testing.T) (string, []byte) {
	t.Helper()
	data := make([]byte, testImageSize)
	rand.New(rand.NewSource(42)).Read(data)
	path := filepath.Join(t.TempDir(), "nbdtest.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func openTestHandle(t *testing.T, mode Mode, imagePath string) *Handle {
	t.Helper()
	s := NewSession(Options{Mode: mode, ImagePath: imagePath})
	feed(t, s, baseArgs)
	b, err := s.Complete()
	require.NoError(t, err)
	h, err := b.Open(true)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

// chunkedPread never transfers more than limit bytes per call.
func chunkedPread(limit int, calls *int) preadFunc {
	return func(fd int, p []byte, offset int64) (int, error) {
		*calls++
		if len(p) > limit {
			p = p[:limit]
		}
		return unix.Pread(fd, p, offset)
	}
}

func TestFileBackedSize(t *testing.T) {
	path, data := writeTestImage(t)
	h := openTestHandle(t, ModeValidating, path)

	size, err := h.GetSize()
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), size)
}

func TestFileBackedRead(t *testing.T) {
	path, data := writeTestImage(t)
	h := openTestHandle(t, ModeCountOnly, path)

	ranges := []struct{ offset, length int }{
		{0, 512},
		{0, len(data)},
		{1, 1},
		{4095, 8193},
		{len(data) - 10, 10},
	}
	for _, r := range ranges {
		buf := make([]byte, r.length)
		require.NoError(t, h.PRead(buf, uint64(r.offset), 0))
		require.True(t, bytes.Equal(data[r.offset:r.offset+r.length], buf), "offset %d length %d", r.offset, r.length)
	}
}

func TestFileBackedConcurrentReads(t *testing.T) {
	path, data := writeTestImage(t)
	h := openTestHandle(t, ModeCountOnly, path)

	const readers = 8
	const length = 4096
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	bufs := make([][]byte, readers)
	for i := 0; i < readers; i++ {
		bufs[i] = make([]byte, length)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- h.PRead(bufs[i], uint64(i*length), 0)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	for i, buf := range bufs {
		require.Equal(t, data[i*length:(i+1)*length], buf, "reader %d", i)
	}
}

func TestFileBackedReadSplitTransfers(t *testing.T) {
	path, data := writeTestImage(t)
	h := openTestHandle(t, ModeValidating, path)

	calls := 0
	h.src.(*fileSource).pread = chunkedPread(7, &calls)

	buf := make([]byte, 1000)
	require.NoError(t, h.PRead(buf, 333, 0))
	require.Equal(t, data[333:1333], buf)
	require.Equal(t, 143, calls)
}

func TestFileBackedReadPastEOF(t *testing.T) {
	path, data := writeTestImage(t)
	h := openTestHandle(t, ModeValidating, path)

	buf := make([]byte, 100)
	err := h.PRead(buf, uint64(len(data)-50), 0)
	require.ErrorIs(t, err, ErrShortRead)

	err = h.PRead(buf, uint64(len(data)+4096), 0)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestFileBackedReadSystemError(t *testing.T) {
	path, _ := writeTestImage(t)
	h := openTestHandle(t, ModeValidating, path)

	h.src.(*fileSource).pread = func(fd int, p []byte, offset int64) (int, error) {
		return -1, unix.EIO
	}
	err := h.PRead(make([]byte, 10), 0, 0)
	require.ErrorIs(t, err, ErrSystemIO)
	require.ErrorIs(t, err, unix.EIO)
}

func TestFileBackedOpenMissingImage(t *testing.T) {
	s := NewSession(Options{Mode: ModeValidating, ImagePath: filepath.Join(t.TempDir(), "missing.img")})
	feed(t, s, baseArgs)
	b, err := s.Complete()
	require.NoError(t, err)

	h, err := b.Open(true)
	require.ErrorIs(t, err, ErrBackingFileOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Nil(t, h)
}

func TestSyntheticSizeAndRead(t *testing.T) {
	h := openTestHandle(t, ModeSynthetic, "")

	size, err := h.GetSize()
	require.NoError(t, err)
	require.Equal(t, uint64(524288000), size)

	for _, offset := range []uint64{0, 12345, SyntheticSize - 1, SyntheticSize * 4} {
		buf := make([]byte, 4096)
		require.NoError(t, h.PRead(buf, offset, 0))
		require.Equal(t, bytes.Repeat([]byte{0x55}, 4096), buf)
	}
}

func TestClosedHandle(t *testing.T) {
	path, _ := writeTestImage(t)
	h := openTestHandle(t, ModeValidating, path)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err := h.GetSize()
	require.ErrorIs(t, err, ErrHandleClosed)
	require.ErrorIs(t, h.PRead(make([]byte, 1), 0, 0), ErrHandleClosed)
}
