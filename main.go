package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

var logger = zerolog.
	New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}).
	Level(zerolog.InfoLevel).
	With().
	Timestamp().
	Logger()

func printBanner(config *Config) {
	logger.Info().
		Str("addr", config.Addr()).
		Str("read-buffer", humanize.IBytes(uint64(config.ReadBufferSize))).
		Str("max-bulk", humanize.IBytes(uint64(config.MaxBulkLen))).
		Int("max-clients", config.MaxClients).
		Int("pid", os.Getpid()).
		Msg("respd is ready to accept connections")
}

func setLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	logger = logger.Level(lvl)
	return nil
}

func main() {
	flags := pflag.NewFlagSet("respd", pflag.ExitOnError)
	path := flags.StringP("config", "c", defaultConfigFileName, "config file path.")
	debug := flags.Bool("debug", false, "enable debug logs.")
	flags.String("host", DefaultConfig.Host, "listen host.")
	flags.IntP("port", "p", DefaultConfig.Port, "listen port.")
	flags.String("debug-addr", DefaultConfig.DebugAddr, "metrics and pprof address, empty to disable.")
	_ = flags.Parse(os.Args[1:])

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Msg("load .env file error")
	}

	config, err := LoadConfig(afero.NewOsFs(), *path, flags)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config error")
	}
	if *debug {
		config.LogLevel = zerolog.DebugLevel.String()
	}
	if err := setLogLevel(config.LogLevel); err != nil {
		logger.Fatal().Err(err).Msg("invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(config, NewMux())

	if config.DebugAddr != "" {
		go func() {
			logger.Debug().Str("addr", config.DebugAddr).Msg("serve debug endpoints")
			if err := http.ListenAndServe(config.DebugAddr, debugHandler(server.metrics)); err != nil {
				logger.Error().Err(err).Msg("debug server error")
			}
		}()
	}

	printBanner(config)

	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, errServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("respd is shutting down")
}
