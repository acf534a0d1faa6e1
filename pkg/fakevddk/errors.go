package fakevddk

import "errors"

var (
	ErrConfigCountMismatch = errors.New("wrong number of arguments to fake VDDK test plugin")
	ErrExtraConfigIO       = errors.New("failed to read VDDK extra configuration file")
	ErrExtraConfigContent  = errors.New("unexpected content in VDDK extra configuration file")
	ErrExtraConfigTooLong  = errors.New("VDDK extra configuration line too long")
	ErrBackingFileOpen     = errors.New("failed to open backing disk image")
	ErrShortRead           = errors.New("end-of-file from pread")
	ErrSystemIO            = errors.New("error from pread")

	ErrNotConfigured = errors.New("configuration has not been completed")
	ErrSessionClosed = errors.New("configuration session is closed")
	ErrHandleClosed  = errors.New("disk handle is closed")
)
