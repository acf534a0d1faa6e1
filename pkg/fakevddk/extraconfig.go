package fakevddk

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// ExtraConfigLine is the only content accepted in a VDDK extra configuration
// file. The import tests write it through a ConfigMap.
const ExtraConfigLine = "VixDiskLib.nfcAio.Session.BufSizeIn64KB=16"

// MaxExtraConfigLine bounds a single line read, terminator included.
const MaxExtraConfigLine = 49

// ReadExtraConfig opens path on fsys, reads a single line and checks it is
// exactly ExtraConfigLine. A trailing newline is part of the line and makes
// the comparison fail.
func ReadExtraConfig(fsys afero.Fs, path string) (err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrExtraConfigIO, path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	line, err := readLine(bufio.NewReader(f), MaxExtraConfigLine)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrExtraConfigIO, path, err)
	}
	if len(line) == MaxExtraConfigLine && line[len(line)-1] != '\n' {
		return fmt.Errorf("%w: first line of %s reaches the %d byte limit", ErrExtraConfigTooLong, path, MaxExtraConfigLine)
	}
	if string(line) != ExtraConfigLine {
		return fmt.Errorf("%w %s: %q", ErrExtraConfigContent, path, line)
	}
	return nil
}

// readLine returns up to limit bytes, stopping after the first newline. It
// fails only when nothing at all could be read.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	line := make([]byte, 0, limit)
	for len(line) < limit {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				break
			}
			return nil, err
		}
		line = append(line, b)
		if b == '\n' {
			break
		}
	}
	return line, nil
}

// WriteExtraConfig writes the known good extra configuration line to path.
func WriteExtraConfig(fsys afero.Fs, path string) error {
	if err := afero.WriteFile(fsys, path, []byte(ExtraConfigLine), 0o644); err != nil {
		return fmt.Errorf("failed to write extra configuration file %s: %w", path, err)
	}
	return nil
}
