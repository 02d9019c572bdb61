// Package config holds the device options: flags, environment and an
// optional YAML file.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/tasks"
)

// Config provides the options to set up a device.
type Config struct {
	// File is the YAML file the config is loaded from.
	File string `yaml:"-"`

	// DeviceID identifies the device on shared links.
	DeviceID string `yaml:"device_id"`
	// LinkURL selects the network link, see netlink.Open.
	// e.g. mqtt://host:port/topic-prefix
	LinkURL string `yaml:"link_url"`
	// KeyID and Key (hex) select the chat encryption key.
	KeyID uint32 `yaml:"key_id"`
	Key   string `yaml:"key"`
	// TrackAlias is the chat track published to.
	TrackAlias uint64 `yaml:"track_alias"`
	// MetricsAddr is the listen address of the Prometheus exporter, empty
	// to disable.
	MetricsAddr  string        `yaml:"metrics_addr"`
	LoopInterval time.Duration `yaml:"loop_interval"`

	Echo                bool `yaml:"echo"`
	MockKeyboardWithPTT bool `yaml:"mock_keyboard_with_ptt"`
	Fib                 bool `yaml:"fib"`
	FibN                int  `yaml:"fib_n"`
	Shell               bool `yaml:"shell"`
}

var defaultConfig = Config{
	LinkURL:      "loop://",
	KeyID:        tasks.DefaultKeyID,
	Key:          hex.EncodeToString(tasks.DefaultKey[:]),
	TrackAlias:   tasks.DefaultTrackAlias,
	LoopInterval: framework.DefaultInterval,
	Echo:         true,
	FibN:         tasks.DefaultFibN,
}

func init() {
	defaultConfig.DeviceID = MachineID()
	applyEnv(&defaultConfig, os.Getenv)
}

func applyEnv(c *Config, getenv func(string) string) {
	if val := getenv("HACTAR_LINK_URL"); val != "" {
		c.LinkURL = val
	}
	if val := getenv("HACTAR_CONFIG"); val != "" {
		c.File = val
	}
	if val := getenv("HACTAR_METRICS_ADDR"); val != "" {
		c.MetricsAddr = val
	}
}

// MachineID returns an ID of this machine specific to the application. It
// falls back to "hactar" when the machine has no ID.
func MachineID() string {
	id, err := machineid.ProtectedID("hactar")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "hactar"
	}
	return id[:16]
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.File, "config", c.File, "YAML config file")
	flag.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID")
	flag.StringVar(&c.LinkURL, "link", c.LinkURL, "Network link URL (loop://, mqtt://, tcp://, ws://)")
	flag.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Prometheus listen address")
	flag.DurationVar(&c.LoopInterval, "interval", c.LoopInterval, "Loop interval")
	flag.BoolVar(&c.Echo, "echo", c.Echo, "Echo console input")
	flag.BoolVar(&c.MockKeyboardWithPTT, "ptt-keyboard", c.MockKeyboardWithPTT, "Type with the PTT button")
	flag.BoolVar(&c.Fib, "fib", c.Fib, "Run the Fib load task")
	flag.IntVar(&c.FibN, "fib-n", c.FibN, "Fibonacci number computed by the Fib task")
	flag.BoolVar(&c.Shell, "shell", c.Shell, "Run the interactive shell")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads File if set. Options in the file override the current ones.
func (c *Config) Load() error {
	if c.File == "" {
		return nil
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s: %w", c.File, err)
	}
	return nil
}

// KeyBytes decodes Key.
func (c *Config) KeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	if len(key) != len(tasks.DefaultKey) {
		return nil, fmt.Errorf("invalid key: %d bytes, want %d", len(key), len(tasks.DefaultKey))
	}
	return key, nil
}

// Validate checks the options.
func (c *Config) Validate() error {
	var errs framework.AggregatedError
	if c.DeviceID == "" {
		errs.Add(fmt.Errorf("device id must be specified"))
	}
	if c.LinkURL == "" {
		errs.Add(fmt.Errorf("link URL must be specified"))
	}
	if c.LoopInterval <= 0 {
		errs.Add(fmt.Errorf("invalid loop interval %v", c.LoopInterval))
	}
	if _, err := c.KeyBytes(); err != nil {
		errs.Add(err)
	}
	if c.Fib && c.FibN < 0 {
		errs.Add(fmt.Errorf("invalid fib n %d", c.FibN))
	}
	return errs.Aggregate()
}

// NewData creates the task data with the configured key and track.
func (c *Config) NewData() (*tasks.Data, error) {
	key, err := c.KeyBytes()
	if err != nil {
		return nil, err
	}
	data := tasks.NewData()
	if err := data.Crypto.Keys.Add(c.KeyID, key); err != nil {
		return nil, err
	}
	data.Crypto.KeyID = c.KeyID
	data.Chat.Object.TrackAlias = c.TrackAlias
	return data, nil
}

// TaskOptions returns the task set selected.
func (c *Config) TaskOptions() tasks.Options {
	return tasks.Options{
		MockKeyboardWithPTT: c.MockKeyboardWithPTT,
		Fib:                 c.Fib,
		FibN:                c.FibN,
	}
}
