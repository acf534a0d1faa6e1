package fakevddk

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
)

const (
	BaseArgumentCount = 7

	// snapshot always comes paired with a transports argument.
	KeySnapshot = "snapshot"
	KeyConfig   = "config"
)

type Options struct {
	Mode Mode
	// ImagePath overrides DefaultImagePath for file backed modes.
	ImagePath string
	// Fs is used to open extra configuration files. Defaults to the OS filesystem.
	Fs afero.Fs
}

// Session accumulates the key/value pairs nbdkit hands to the plugin and
// decides at Complete whether the device may be opened. A Session is not safe
// for concurrent use; nbdkit delivers configuration from its main thread
// before any connection is served.
type Session struct {
	opts     Options
	count    int
	expected int
	done     bool
	failed   error
}

func NewSession(opts Options) *Session {
	if opts.Mode == "" {
		opts.Mode = ModeValidating
	}
	if opts.ImagePath == "" {
		opts.ImagePath = DefaultImagePath
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &Session{
		opts:     opts,
		expected: BaseArgumentCount,
	}
}

func (s *Session) Mode() Mode {
	return s.opts.Mode
}

// Count returns the number of entries seen so far.
func (s *Session) Count() int {
	return s.count
}

// Expected returns the entry count Complete will require.
func (s *Session) Expected() int {
	return s.expected
}

func (s *Session) Config(key, value string) error {
	if s.done {
		return ErrSessionClosed
	}
	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrSessionClosed, s.failed)
	}
	s.count++
	switch key {
	case KeySnapshot:
		s.expected += 2
	case KeyConfig:
		s.expected++
		slog.Debug("Extra config option set to: " + value)
		if s.opts.Mode.readsExtraConfig() {
			if err := ReadExtraConfig(s.opts.Fs, value); err != nil {
				s.failed = err
				return err
			}
		}
	}
	return nil
}

// Complete finalizes the session. On success the returned Backend serves the
// device described by the session's options.
func (s *Session) Complete() (*Backend, error) {
	if s.done {
		return nil, ErrSessionClosed
	}
	if s.failed != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionClosed, s.failed)
	}
	s.done = true
	slog.Debug("VMware VixDiskLib (1.2.3) Release build-12345")
	if s.count != s.expected {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrConfigCountMismatch, s.expected, s.count)
	}
	return newBackend(s.opts), nil
}
