// Package config loads the runtime's default TCP/RTU connection
// parameters, default polling interval, and log level from a YAML file and
// environment overrides, with live reload on file change. Every other
// component consumes the resulting Config as a plain value — nothing
// outside this package touches viper or the filesystem.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds the defaults the command surface falls back to when a
// caller omits explicit connection parameters, plus process-wide settings.
type Config struct {
	TCP             TCPDefaults `mapstructure:"tcp"`
	RTU             RTUDefaults `mapstructure:"rtu"`
	PollingInterval int         `mapstructure:"polling_interval_ms"`
	LogLevel        string      `mapstructure:"log_level"`
}

// TCPDefaults describes the fallback TCP endpoint.
type TCPDefaults struct {
	IP      string `mapstructure:"ip"`
	Port    int    `mapstructure:"port"`
	SlaveID int    `mapstructure:"slave_id"`
}

// RTUDefaults describes the fallback serial endpoint.
type RTUDefaults struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
	SlaveID  int    `mapstructure:"slave_id"`
}

// Default returns the built-in configuration used when no file is found.
func Default() *Config {
	return &Config{
		TCP: TCPDefaults{
			IP:      "192.168.0.31",
			Port:    502,
			SlaveID: 1,
		},
		RTU: RTUDefaults{
			Port:     "COM1",
			BaudRate: 9600,
			SlaveID:  1,
		},
		PollingInterval: 1000,
		LogLevel:        "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tcp.ip", d.TCP.IP)
	v.SetDefault("tcp.port", d.TCP.Port)
	v.SetDefault("tcp.slave_id", d.TCP.SlaveID)
	v.SetDefault("rtu.port", d.RTU.Port)
	v.SetDefault("rtu.baud_rate", d.RTU.BaudRate)
	v.SetDefault("rtu.slave_id", d.RTU.SlaveID)
	v.SetDefault("polling_interval_ms", d.PollingInterval)
	v.SetDefault("log_level", d.LogLevel)
}

// Loader owns the viper instance backing a Config and can watch its source
// file for changes, invoking onChange with the freshly parsed Config.
type Loader struct {
	v       *viper.Viper
	watcher *fsnotify.Watcher
}

// Load reads configuration from configPath (or the default search paths if
// empty), applying "PLCRT_"-prefixed environment overrides on top.
func Load(configPath string) (*Config, *Loader, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath(defaultConfigDir())
	}

	v.SetEnvPrefix("PLCRT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, &Loader{v: v}, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Watch starts watching the resolved config file for writes, re-reading it
// and invoking onChange with the updated Config on every change. Errors
// from the watcher (missing config file, e.g. when running purely off
// defaults/env) are returned immediately and Watch is a no-op.
func (l *Loader) Watch(onChange func(*Config)) error {
	path := l.v.ConfigFileUsed()
	if path == "" {
		return fmt.Errorf("config: no file to watch, loaded from defaults/env only")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	l.watcher = watcher

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := l.v.ReadInConfig(); err != nil {
					continue
				}
				if cfg, err := unmarshal(l.v); err == nil {
					onChange(cfg)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// Close stops the underlying file watcher, if one was started.
func (l *Loader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "plcbridge")
}
