package fakevddk

import (
	"fmt"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrno(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syscall.Errno
	}{
		{"nil", nil, 0},
		{"count mismatch", fmt.Errorf("%w: expected 9, got 8", ErrConfigCountMismatch), syscall.EINVAL},
		{"short read", fmt.Errorf("%w at offset 0", ErrShortRead), syscall.EIO},
		{"content", ErrExtraConfigContent, syscall.EIO},
		{"pread errno", fmt.Errorf("%w at offset 0: %w", ErrSystemIO, syscall.EFAULT), syscall.EFAULT},
		{"closed", ErrHandleClosed, syscall.EBADF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Errno(tt.err))
		})
	}
}

func TestErrnoFromMissingImage(t *testing.T) {
	s := NewSession(Options{Mode: ModeCountOnly, ImagePath: filepath.Join(t.TempDir(), "missing.img")})
	for i := 0; i < BaseArgumentCount; i++ {
		require.NoError(t, s.Config(fmt.Sprintf("key%d", i), "v"))
	}
	b, err := s.Complete()
	require.NoError(t, err)

	_, err = b.Open(true)
	require.ErrorIs(t, err, ErrBackingFileOpen)
	require.Equal(t, syscall.ENOENT, Errno(err))
}
