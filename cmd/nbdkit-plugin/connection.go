package main

import (
	"log/slog"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"libguestfs.org/nbdkit"
)

type FakeVddkConnection struct {
	nbdkit.Connection

	handle *fakevddk.Handle
}

func (c *FakeVddkConnection) GetSize() (uint64, error) {
	size, err := c.handle.GetSize()
	if err != nil {
		return 0, pluginError(err)
	}
	return size, nil
}

func (c *FakeVddkConnection) PRead(buf []byte, offset uint64, flags uint32) error {
	if err := c.handle.PRead(buf, offset, flags); err != nil {
		return pluginError(err)
	}
	return nil
}

func (c *FakeVddkConnection) CanWrite() (bool, error) {
	return false, nil
}

func (c *FakeVddkConnection) Close() {
	if err := c.handle.Close(); err != nil {
		slog.Error("Failed to close disk handle", "error", err)
	}
}
