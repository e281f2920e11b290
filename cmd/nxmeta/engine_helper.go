package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nxmeta/internal/config"
	"nxmeta/internal/dataset"
	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/export"
	"nxmeta/internal/infodoc"
	"nxmeta/internal/logging"
	"nxmeta/internal/xfdl"
)

// loadConfig reads the config of --dir and applies the persistent flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dataRoot != "" {
		cfg.Data.Root = dataRoot
	}
	if dataVersion != "" {
		cfg.Data.Version = dataVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr so that stdout stays parseable. One-shot
// commands pass WarnLevel as fallback; --log-level always wins.
func newLogger(cfg *config.Config, fallback logging.LogLevel) *logging.Logger {
	format := logging.Format(cfg.Logging.Format)
	if format == "" {
		format = logging.HumanFormat
	}
	level := fallback
	if logLevel != "" {
		level = logging.ParseLevel(logLevel)
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  level,
		Output: os.Stderr,
	})
}

// newLoader builds the dataset loader for cfg.
func newLoader(cfg *config.Config, logger *logging.Logger) *dataset.Loader {
	return dataset.NewLoader(dataset.Options{
		Root:   cfg.Data.Root,
		Marker: cfg.Lineage.Marker,
		Logger: logger,
	})
}

// loadSnapshot loads the configured work version.
func loadSnapshot(ctx context.Context) (*config.Config, *dataset.Snapshot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg, logging.WarnLevel)
	snap, err := newLoader(cfg, logger).Load(ctx, cfg.Data.Version)
	if err != nil {
		return nil, nil, err
	}
	return cfg, snap, nil
}

// newRewriter builds the XFDL rewriter with the configured name comparison
// and any extra rules.
func newRewriter(cfg *config.Config) (*xfdl.Rewriter, error) {
	var extra []xfdl.Rule
	if cfg.Xfdl.RulesFile != "" {
		rules, err := xfdl.LoadRules(cfg.Xfdl.RulesFile)
		if err != nil {
			return nil, err
		}
		extra = rules
	}
	return xfdl.NewRewriter(xfdl.NameComparison(cfg.Xfdl.NameComparison), extra...), nil
}

func convention(cfg *config.Config) xfdl.Convention {
	return xfdl.Convention{Prefix: cfg.Xfdl.Prefix, Ext: cfg.Xfdl.Ext}
}

func serializeOptions(cfg *config.Config) infodoc.SerializeOptions {
	return infodoc.SerializeOptions{OmitIfEmpty: cfg.Info.OmitIfEmpty}
}

// newContext returns a context cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// readInput reads a file argument; "-" reads stdin.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nxerrors.New(nxerrors.NotFound, "input file not found: "+name, err)
		}
		return nil, err
	}
	return data, nil
}

// writeOutput writes through fn to path, or to stdout when path is empty
// or "-".
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return nxerrors.New(nxerrors.ExportFailed, "creating "+path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return nxerrors.New(nxerrors.ExportFailed, "writing "+path, err)
	}
	if err := f.Close(); err != nil {
		return nxerrors.New(nxerrors.ExportFailed, "closing "+path, err)
	}
	return nil
}

// parseExport validates an --export value.
func parseExport(v string, allowed ...export.Format) (export.Format, error) {
	for _, f := range allowed {
		if export.Format(v) == f {
			return f, nil
		}
	}
	return "", nxerrors.Newf(nxerrors.InvalidArgument, "unsupported export format %q", v)
}
