package fakevddk

import (
	"fmt"
	"log/slog"
)

const DefaultImagePath = "/opt/testing/nbdtest.img"

const (
	SyntheticSize    uint64 = 524288000
	SyntheticPattern byte   = 0x55
)

// Importers scrape this line out of the nbdkit log to report what VDDK opened.
const diskLibOpenedMessage = "DISKLIB-LINK  : Opened 'vpxa-nfcssl://[iSCSI_Datastore] test/test.vmdk@esx.test:902' (0xa): custom, 50331648 sectors / 24 GB."

// source is where a Handle gets its bytes from.
type source interface {
	size() (uint64, error)
	readAt(buf []byte, offset uint64) error
	close() error
}

// Backend opens disk handles for a completed Session. Handles hold no
// offset or cache state: reads are positional, so concurrent PRead calls on
// one handle need no lock. Close must not race with reads.
type Backend struct {
	opts Options
}

func newBackend(opts Options) *Backend {
	return &Backend{opts: opts}
}

func (b *Backend) Mode() Mode {
	return b.opts.Mode
}

func (b *Backend) ImagePath() string {
	if !b.opts.Mode.fileBacked() {
		return ""
	}
	return b.opts.ImagePath
}

// Open acquires the data source. The image is always opened read-only; the
// readonly flag only exists to satisfy the nbdkit contract.
func (b *Backend) Open(readonly bool) (*Handle, error) {
	var src source
	if b.opts.Mode.fileBacked() {
		fs, err := openFileSource(b.opts.ImagePath)
		if err != nil {
			return nil, err
		}
		src = fs
	} else {
		src = syntheticSource{}
	}
	slog.Debug(diskLibOpenedMessage)
	return &Handle{src: src}, nil
}

// Handle is one open virtual disk.
type Handle struct {
	src    source
	closed bool
}

func (h *Handle) GetSize() (uint64, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}
	return h.src.size()
}

// PRead fills buf completely from offset or fails. Flags are accepted and
// ignored.
func (h *Handle) PRead(buf []byte, offset uint64, flags uint32) error {
	if h.closed {
		return ErrHandleClosed
	}
	return h.src.readAt(buf, offset)
}

func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if err := h.src.close(); err != nil {
		return fmt.Errorf("failed to close disk handle: %w", err)
	}
	return nil
}
