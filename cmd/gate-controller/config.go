package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sweeney/gate-controller/internal/gpio"
	"github.com/sweeney/gate-controller/internal/mqtt"
)

// GPIOConfig selects the chip and line offsets.
type GPIOConfig struct {
	Chip string    `yaml:"chip"`
	Pins gpio.Pins `yaml:"pins"`
}

// Config is the daemon configuration. It is read from an optional YAML file;
// command-line flags that are set explicitly take precedence.
type Config struct {
	GPIO      GPIOConfig    `yaml:"gpio"`
	MQTT      mqtt.Config   `yaml:"mqtt"`
	Period    time.Duration `yaml:"period"`
	Tick      time.Duration `yaml:"tick"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	HTTPAddr  string        `yaml:"http"`
}

func defaultConfig() Config {
	return Config{
		GPIO: GPIOConfig{
			Chip: gpio.DefaultChip,
			Pins: gpio.DefaultPins,
		},
		MQTT: mqtt.Config{
			ClientID:   "gate-controller",
			BufferSize: mqtt.DefaultBufferSize,
		},
		Period:    50 * time.Millisecond,
		Tick:      time.Second,
		Heartbeat: 15 * time.Minute,
		HTTPAddr:  ":80",
	}
}

// Validate reports the first configuration error found.
func (c Config) Validate() error {
	if c.GPIO.Chip == "" {
		return errors.New("gpio chip must be set")
	}
	if err := c.GPIO.Pins.Validate(); err != nil {
		return fmt.Errorf("gpio pins: %w", err)
	}
	if c.Period <= 0 {
		return fmt.Errorf("period must be positive, got %v", c.Period)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", c.Tick)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat)
	}
	return nil
}

func decodeConfig(r io.Reader, cfg *Config) error {
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func readConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := decodeConfig(f, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// options are the command-line settings that are not part of Config.
type options struct {
	printState bool
}

// parseConfig builds the configuration from defaults, the optional config
// file and the command line, in that order of increasing precedence.
func parseConfig(name string, args []string) (Config, options, error) {
	cfg := defaultConfig()
	var opts options

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfgFile := fs.String("config", "", "YAML config file (optional)")
	period := fs.Duration("period", cfg.Period, "Control loop period")
	tick := fs.Duration("tick", cfg.Tick, "Auto-close timer tick")
	heartbeat := fs.Duration("heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	broker := fs.String("broker", cfg.MQTT.Broker, "MQTT broker address (empty to disable)")
	chip := fs.String("chip", cfg.GPIO.Chip, "GPIO chip")
	httpAddr := fs.String("http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	fs.BoolVar(&opts.printState, "print-state", false, "Print current inputs and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, opts, err
	}

	if *cfgFile != "" {
		if err := readConfigFile(*cfgFile, &cfg); err != nil {
			return Config{}, opts, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "period":
			cfg.Period = *period
		case "tick":
			cfg.Tick = *tick
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "broker":
			cfg.MQTT.Broker = *broker
		case "chip":
			cfg.GPIO.Chip = *chip
		case "http":
			cfg.HTTPAddr = *httpAddr
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, opts, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, opts, nil
}
