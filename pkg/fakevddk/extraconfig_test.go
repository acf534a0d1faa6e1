package fakevddk

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// closeTrackingFs counts files opened and closed through it.
type closeTrackingFs struct {
	afero.Fs
	opened int
	closed int
}

type closeTrackingFile struct {
	afero.File
	fs *closeTrackingFs
}

func (f *closeTrackingFile) Close() error {
	f.fs.closed++
	return f.File.Close()
}

func (c *closeTrackingFs) Open(name string) (afero.File, error) {
	f, err := c.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	c.opened++
	return &closeTrackingFile{File: f, fs: c}, nil
}

func TestReadExtraConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"exact line", ExtraConfigLine, nil},
		{"trailing newline", ExtraConfigLine + "\n", ErrExtraConfigContent},
		{"second line ignored but newline kept", ExtraConfigLine + "\nmore\n", ErrExtraConfigContent},
		{"different value", "VixDiskLib.nfcAio.Session.BufSizeIn64KB=32", ErrExtraConfigContent},
		{"empty", "", ErrExtraConfigIO},
		{"too long", strings.Repeat("x", 60), ErrExtraConfigTooLong},
		{"exactly at the limit", strings.Repeat("x", MaxExtraConfigLine), ErrExtraConfigTooLong},
		{"just below the limit", strings.Repeat("x", MaxExtraConfigLine-1) + "\n", ErrExtraConfigContent},
		{"empty first line", "\n" + ExtraConfigLine, ErrExtraConfigContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := &closeTrackingFs{Fs: afero.NewMemMapFs()}
			require.NoError(t, afero.WriteFile(fsys, "/etc/vddk.conf", []byte(tt.content), 0o644))

			err := ReadExtraConfig(fsys, "/etc/vddk.conf")
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
			require.Equal(t, 1, fsys.opened)
			require.Equal(t, 1, fsys.closed)
		})
	}
}

func TestReadExtraConfigReportsPathAndContent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/vddk.conf", []byte("hello"), 0o644))

	err := ReadExtraConfig(fsys, "/etc/vddk.conf")
	require.ErrorIs(t, err, ErrExtraConfigContent)
	require.Contains(t, err.Error(), "/etc/vddk.conf")
	require.Contains(t, err.Error(), `"hello"`)
}

func TestReadExtraConfigEmptyIncludesReason(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/etc/vddk.conf", nil, 0o644))

	err := ReadExtraConfig(fsys, "/etc/vddk.conf")
	require.ErrorIs(t, err, ErrExtraConfigIO)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadExtraConfigMissingFile(t *testing.T) {
	fsys := &closeTrackingFs{Fs: afero.NewMemMapFs()}

	err := ReadExtraConfig(fsys, "/etc/missing.conf")
	require.ErrorIs(t, err, ErrExtraConfigIO)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Zero(t, fsys.opened)
	require.Zero(t, fsys.closed)
}

func TestWriteExtraConfigRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, WriteExtraConfig(fsys, "/vddk/config"))
	require.NoError(t, ReadExtraConfig(fsys, "/vddk/config"))
}
