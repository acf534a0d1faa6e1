package config

import (
	"fmt"

	"github.com/legitYosal/vddk-test/pkg/fakevddk"
	"github.com/spf13/viper"
)

const DefaultPluginPath = "/opt/testing/libvddk-test-plugin.so"

type Config struct {
	Mode           string `mapstructure:"FAKEVDDK_MODE"`
	ImagePath      string `mapstructure:"FAKEVDDK_IMAGE_PATH"`
	PluginPath     string `mapstructure:"FAKEVDDK_PLUGIN_PATH"`
	VMWareHOST     string `mapstructure:"VMWARE_HOST"`
	VMWareUsername string `mapstructure:"VMWARE_USERNAME"`
	VMWarePassword string `mapstructure:"VMWARE_PASSWORD"`
	S3URL          string `mapstructure:"S3_URL"`
	S3SecretKey    string `mapstructure:"S3_SECRET_KEY"`
	S3AccessKey    string `mapstructure:"S3_ACCESS_KEY"`
	S3BucketName   string `mapstructure:"S3_BUCKET_NAME"`
	S3Region       string `mapstructure:"S3_REGION"`
	Debug          bool   `mapstructure:"DEBUG"`
}

// Keys lists every configuration key; each is also read from the
// environment variable of the same name.
var Keys = []string{
	"FAKEVDDK_MODE",
	"FAKEVDDK_IMAGE_PATH",
	"FAKEVDDK_PLUGIN_PATH",
	"VMWARE_HOST",
	"VMWARE_USERNAME",
	"VMWARE_PASSWORD",
	"S3_URL",
	"S3_SECRET_KEY",
	"S3_ACCESS_KEY",
	"S3_BUCKET_NAME",
	"S3_REGION",
	"DEBUG",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.AutomaticEnv()
	for _, key := range Keys {
		v.BindEnv(key, key)
	}
	v.SetDefault("FAKEVDDK_MODE", string(fakevddk.ModeValidating))
	v.SetDefault("FAKEVDDK_IMAGE_PATH", fakevddk.DefaultImagePath)
	v.SetDefault("FAKEVDDK_PLUGIN_PATH", DefaultPluginPath)
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromENV is used where there are no flags to bind, e.g. inside the
// nbdkit plugin.
func LoadFromENV() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		return nil, err
	}
	if _, err := cfg.FakeVddkMode(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) FakeVddkMode() (fakevddk.Mode, error) {
	return fakevddk.ParseMode(c.Mode)
}

// SessionOptions returns the options for a new plugin configuration session.
func (c *Config) SessionOptions() (fakevddk.Options, error) {
	mode, err := c.FakeVddkMode()
	if err != nil {
		return fakevddk.Options{}, err
	}
	return fakevddk.Options{
		Mode:      mode,
		ImagePath: c.ImagePath,
	}, nil
}

func ValidateVMwareConfig(cfg *Config) error {
	if cfg.VMWareHOST == "" {
		return fmt.Errorf("vcenter host must be provided")
	}
	if cfg.VMWareUsername == "" {
		return fmt.Errorf("vcenter username must be provided")
	}
	if cfg.VMWarePassword == "" {
		return fmt.Errorf("vcenter password must be provided")
	}
	return nil
}

func ValidateS3Config(cfg *Config) error {
	if cfg.S3BucketName == "" {
		return fmt.Errorf("s3 bucket name must be provided")
	}
	if cfg.S3URL == "" {
		return fmt.Errorf("s3 url must be provided")
	}
	if cfg.S3SecretKey == "" {
		return fmt.Errorf("s3 secret key must be provided")
	}
	if cfg.S3AccessKey == "" {
		return fmt.Errorf("s3 access key must be provided")
	}
	if cfg.S3Region == "" {
		return fmt.Errorf("s3 region must be provided")
	}
	return nil
}
