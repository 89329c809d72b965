package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/anupcshan/bin2hex/convert"
)

type globalFlags struct {
	logLevel    string
	metricsFile string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVar(&g.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(g.logLevel),
	}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// withMetrics runs fn with a fresh metrics registry and, when --metrics-file
// is set, writes the registry out afterwards whether or not fn failed.
func (g *globalFlags) withMetrics(fn func(*convert.Metrics) error) error {
	if g.metricsFile == "" {
		return fn(nil)
	}

	reg := prometheus.NewRegistry()
	runErr := fn(convert.NewMetrics(reg))

	if err := prometheus.WriteToTextfile(g.metricsFile, reg); err != nil {
		err = &convert.IOError{Op: "write", Path: g.metricsFile, Err: err}
		if runErr != nil {
			return errors.WithMessagef(runErr, "also failed to write metrics (%v)", err)
		}
		return err
	}
	return runErr
}
