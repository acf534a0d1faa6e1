package nbdkit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

const pidFileTimeout = 10 * time.Second

type NbdkitSocket struct {
	cmd     *exec.Cmd
	socket  string
	pidFile string
	dir     string
}

func (s *NbdkitSocket) Start() error {
	s.cmd.Stdout = os.Stdout
	s.cmd.Stderr = os.Stderr

	slog.Debug("Running command", "command", s.cmd)
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start nbdkit server: %w", err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- s.cmd.Wait()
	}()

	timeout := time.After(pidFileTimeout)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-timeout:
			s.cmd.Process.Kill()
			return fmt.Errorf("timeout waiting for pidfile to appear: %s", s.pidFile)
		case err := <-exited:
			// a rejected configuration makes nbdkit exit before writing the pid file
			return fmt.Errorf("nbdkit exited before becoming ready: %w", err)
		case <-tick.C:
			if _, err := os.Stat(s.pidFile); err == nil {
				return nil
			}
		}
	}
}

func (s *NbdkitSocket) Stop() error {
	defer os.RemoveAll(s.dir)
	if s.cmd.Process == nil {
		return nil
	}
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop nbdkit server: %w", err)
	}
	return nil
}

func (s *NbdkitSocket) Socket() string {
	return s.socket
}

func (s *NbdkitSocket) Args() []string {
	return s.cmd.Args
}

func (s *NbdkitSocket) LibNBDExportName() string {
	return fmt.Sprintf("nbd+unix:///?socket=%s", s.socket)
}
