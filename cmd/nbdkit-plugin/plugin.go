package main

import (
	"fmt"
	"log/slog"

	"github.com/legitYosal/vddk-test/pkg/config"
	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/legitYosal/vddk-test/pkg/logging"
	"libguestfs.org/nbdkit"
)

type FakeVddkPlugin struct {
	nbdkit.Plugin

	loadErr error
	session *fakevddk.Session
	backend *fakevddk.Backend
}

func (p *FakeVddkPlugin) Load() {
	slog.SetDefault(slog.New(logging.NewLineHandler(nbdkit.Debug, slog.LevelDebug)))

	// Load cannot fail, so a bad environment is reported by the first Config
	opts := fakevddk.Options{}
	cfg, err := config.LoadFromENV()
	if err == nil {
		opts, err = cfg.SessionOptions()
	}
	if err != nil {
		p.loadErr = fmt.Errorf("failed to load fake vddk configuration: %w", err)
	}
	p.session = fakevddk.NewSession(opts)
}

func (p *FakeVddkPlugin) DumpPlugin() {
	fmt.Println("vddk_fake=1")
	fmt.Printf("vddk_fake_mode=%s\n", p.session.Mode())
	fmt.Println("vddk_library_version=1.2.3")
}

func (p *FakeVddkPlugin) Config(key string, value string) error {
	if p.loadErr != nil {
		return pluginError(p.loadErr)
	}
	if err := p.session.Config(key, value); err != nil {
		return pluginError(err)
	}
	return nil
}

func (p *FakeVddkPlugin) ConfigComplete() error {
	if p.loadErr != nil {
		return pluginError(p.loadErr)
	}
	backend, err := p.session.Complete()
	if err != nil {
		return pluginError(err)
	}
	p.backend = backend
	slog.Debug("Fake VDDK configured", "mode", backend.Mode(), "image", backend.ImagePath())
	return nil
}

func (p *FakeVddkPlugin) Open(readonly bool) (nbdkit.ConnectionInterface, error) {
	if p.backend == nil {
		return nil, pluginError(fakevddk.ErrNotConfigured)
	}
	handle, err := p.backend.Open(readonly)
	if err != nil {
		return nil, pluginError(err)
	}
	return &FakeVddkConnection{handle: handle}, nil
}

// pluginError attaches the errno nbdkit sends back to the client.
func pluginError(err error) error {
	slog.Error(err.Error())
	return nbdkit.PluginError{Errmsg: err.Error(), Errno: fakevddk.Errno(err)}
}
