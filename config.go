package main

import (
	"errors"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xgzlucario/respd/internal/resp"
	"github.com/xgzlucario/respd/internal/ringbuf"
)

const (
	defaultConfigFileName = "respd.toml"
	envPrefix             = "RESPD"
)

type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	ReadBufferSize int `mapstructure:"read-buffer-size"` // ring buffer capacity per client
	MaxBulkLen     int `mapstructure:"max-bulk-len"`
	MaxInlineLen   int `mapstructure:"max-inline-len"`

	MaxClients    int     `mapstructure:"max-clients"`     // 0 means unlimited
	MaxAcceptRate float64 `mapstructure:"max-accept-rate"` // accepted connections per second, 0 means unlimited

	DebugAddr string `mapstructure:"debug-addr"` // serves /metrics and pprof, empty disables
	LogLevel  string `mapstructure:"log-level"`
}

var DefaultConfig = Config{
	Host:           "127.0.0.1",
	Port:           6379,
	ReadBufferSize: ringbuf.DefaultSize,
	MaxBulkLen:     resp.DefaultOptions.MaxBulkLen,
	MaxInlineLen:   resp.DefaultOptions.MaxInlineLen,
	DebugAddr:      "localhost:6060",
	LogLevel:       "info",
}

// LoadConfig reads the TOML config file at path from fsys. Values are
// overridden by RESPD_* environment variables and by changed flags.
// A missing file leaves the defaults in place.
func LoadConfig(fsys afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("host", DefaultConfig.Host)
	v.SetDefault("port", DefaultConfig.Port)
	v.SetDefault("read-buffer-size", DefaultConfig.ReadBufferSize)
	v.SetDefault("max-bulk-len", DefaultConfig.MaxBulkLen)
	v.SetDefault("max-inline-len", DefaultConfig.MaxInlineLen)
	v.SetDefault("max-clients", DefaultConfig.MaxClients)
	v.SetDefault("max-accept-rate", DefaultConfig.MaxAcceptRate)
	v.SetDefault("debug-addr", DefaultConfig.DebugAddr)
	v.SetDefault("log-level", DefaultConfig.LogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Warn().Str("path", path).Msg("config file not found, using defaults")
	}

	config := new(Config)
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	if config.ReadBufferSize <= 0 {
		return nil, errInvalidBufferSize
	}
	return config, nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) readerOptions() resp.Options {
	return resp.Options{
		ReadBufferSize: c.ReadBufferSize,
		MaxBulkLen:     c.MaxBulkLen,
		MaxInlineLen:   c.MaxInlineLen,
	}
}
