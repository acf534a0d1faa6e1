package nbdkit

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	DefaultVddkLibDir = "/opt/vmware-vix-disklib-distrib"
	DefaultTransports = "file:nbdssl:nbd"
	VddkPlugin        = "vddk"
)

// VddkConfig holds the values passed to the vddk plugin. Empty optional
// fields are left out of the argument list.
type VddkConfig struct {
	LibDir     string
	Server     string
	Username   string
	Password   string
	Thumbprint string
	Moref      string
	Snapshot   string
	File       string
	ConfigFile string
}

// Arg is one key=value plugin parameter.
type Arg struct {
	Key   string
	Value string
}

func (a Arg) String() string {
	return a.Key + "=" + a.Value
}

// PluginArgs returns the plugin parameters in the order the importer passes
// them. passwordFile, when set, replaces the inline password with nbdkit's
// "+FILE" form.
func (c *VddkConfig) PluginArgs(passwordFile string) []Arg {
	libDir := c.LibDir
	if libDir == "" {
		libDir = DefaultVddkLibDir
	}
	password := c.Password
	if passwordFile != "" {
		password = "+" + passwordFile
	}
	args := []Arg{
		{"libdir", libDir},
		{"server", c.Server},
		{"user", c.Username},
		{"password", password},
		{"thumbprint", c.Thumbprint},
		{"vm", "moref=" + c.Moref},
	}
	if c.Snapshot != "" {
		args = append(args, Arg{"snapshot", c.Snapshot}, Arg{"transports", DefaultTransports})
	}
	if c.ConfigFile != "" {
		args = append(args, Arg{"config", c.ConfigFile})
	}
	// file= is the source argument and always goes last
	return append(args, Arg{"file", c.File})
}

// ExpectedCount is the number of arguments the vddk plugin requires once it
// has seen args: seven, plus two for snapshot (it travels with transports)
// and one for config.
func ExpectedCount(args []Arg) int {
	n := 7
	for _, a := range args {
		switch a.Key {
		case "snapshot":
			n += 2
		case "config":
			n++
		}
	}
	return n
}

func (c *VddkConfig) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("vddk server must be provided")
	}
	if c.Moref == "" {
		return fmt.Errorf("vddk vm moref must be provided")
	}
	if c.File == "" {
		return fmt.Errorf("vddk disk file must be provided")
	}
	return nil
}

type NbdkitConfig struct {
	Plugin  string
	Vddk    *VddkConfig
	Verbose bool
	Filters []string
	// Env is appended to the inherited environment of the nbdkit process.
	Env []string
}

func NewNBDKitSocketConfig(plugin string, vddk *VddkConfig) *NbdkitConfig {
	if plugin == "" {
		plugin = VddkPlugin
	}
	return &NbdkitConfig{
		Plugin: plugin,
		Vddk:   vddk,
	}
}

func (c *NbdkitConfig) WithFilter(filter string) *NbdkitConfig {
	for _, f := range c.Filters {
		if f == filter {
			return c
		}
	}
	c.Filters = append(c.Filters, filter)
	return c
}

// Args returns the full nbdkit command line for the given socket, pid file
// and password file.
func (c *NbdkitConfig) Args(socket, pidFile, passwordFile string) []string {
	args := []string{
		"--foreground",
		"--readonly",
		"--exit-with-parent",
		"-U", socket,
		"--pidfile", pidFile,
	}
	for _, f := range c.Filters {
		args = append(args, "--filter="+f)
	}
	if c.Verbose {
		args = append(args, "--verbose", "-D", "vddk.datapath=0")
	}
	args = append(args, c.Plugin)
	for _, a := range c.Vddk.PluginArgs(passwordFile) {
		args = append(args, a.String())
	}
	return args
}

// Build prepares a private directory holding the socket, pid file and
// password file and returns an unstarted server.
func (c *NbdkitConfig) Build() (*NbdkitSocket, error) {
	if err := c.Vddk.Validate(); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "fakevddk-nbdkit-")
	if err != nil {
		return nil, fmt.Errorf("failed to create nbdkit runtime directory: %w", err)
	}
	passwordFile := ""
	if c.Vddk.Password != "" {
		passwordFile = filepath.Join(dir, "password")
		if err := os.WriteFile(passwordFile, []byte(c.Vddk.Password), 0o600); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("failed to write password file: %w", err)
		}
	}
	socket := filepath.Join(dir, "nbdkit.sock")
	pidFile := filepath.Join(dir, "nbdkit.pid")
	cmd := exec.Command("nbdkit", c.Args(socket, pidFile, passwordFile)...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return &NbdkitSocket{
		cmd:     cmd,
		socket:  socket,
		pidFile: pidFile,
		dir:     dir,
	}, nil
}
