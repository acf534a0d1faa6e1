package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/stretchr/testify/require"
	"libguestfs.org/libnbd"
)

// handleNbd serves a fakevddk handle through the libnbd-shaped interface.
type handleNbd struct {
	h *fakevddk.Handle
}

func (n *handleNbd) GetSize() (uint64, error) {
	return n.h.GetSize()
}

func (n *handleNbd) Pread(buf []byte, offset uint64, optargs *libnbd.PreadOptargs) error {
	return n.h.PRead(buf, offset, 0)
}

func (n *handleNbd) Close() *libnbd.LibnbdError {
	n.h.Close()
	return nil
}

func openHandle(t *testing.T, opts fakevddk.Options, args int) *handleNbd {
	t.Helper()
	s := fakevddk.NewSession(opts)
	for i := 0; i < args; i++ {
		require.NoError(t, s.Config("key", "value"))
	}
	b, err := s.Complete()
	require.NoError(t, err)
	h, err := b.Open(true)
	require.NoError(t, err)
	n := &handleNbd{h: h}
	t.Cleanup(func() { n.Close() })
	return n
}

func writeImage(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "nbdtest.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExportSynthetic(t *testing.T) {
	n := openHandle(t, fakevddk.Options{Mode: fakevddk.ModeSynthetic}, fakevddk.BaseArgumentCount)

	report, err := Export(context.Background(), n, Pattern{Length: fakevddk.SyntheticSize, Value: 0x55}, 64*1024*1024)
	require.NoError(t, err)
	require.Equal(t, fakevddk.SyntheticSize, report.Size)
	require.Equal(t, fakevddk.SyntheticSize, report.BytesRead)
	require.Equal(t, 8, report.Chunks)
	require.EqualValues(t, -1, report.MismatchOffset)
}

func TestExportImage(t *testing.T) {
	path := writeImage(t, 1<<20+17)
	n := openHandle(t, fakevddk.Options{Mode: fakevddk.ModeCountOnly, ImagePath: path}, fakevddk.BaseArgumentCount)

	img, err := OpenImage(path)
	require.NoError(t, err)
	defer img.Close()

	report, err := Export(context.Background(), n, img, 64*1024)
	require.NoError(t, err)
	require.Equal(t, 17, report.Chunks)
}

func TestExportContentMismatch(t *testing.T) {
	path := writeImage(t, 4096)
	n := openHandle(t, fakevddk.Options{Mode: fakevddk.ModeCountOnly, ImagePath: path}, fakevddk.BaseArgumentCount)

	report, err := Export(context.Background(), n, Pattern{Length: 4096, Value: 0}, 1024)
	require.ErrorIs(t, err, ErrContentMismatch)
	require.EqualValues(t, 1, report.MismatchOffset)
}

func TestExportSizeMismatch(t *testing.T) {
	n := openHandle(t, fakevddk.Options{Mode: fakevddk.ModeSynthetic}, fakevddk.BaseArgumentCount)

	_, err := Export(context.Background(), n, Pattern{Length: 10, Value: 0x55}, 0)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestExportCanceled(t *testing.T) {
	n := openHandle(t, fakevddk.Options{Mode: fakevddk.ModeSynthetic}, fakevddk.BaseArgumentCount)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Export(ctx, n, Pattern{Length: fakevddk.SyntheticSize, Value: 0x55}, 0)
	require.ErrorIs(t, err, context.Canceled)
}
