package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"igvtools/internal/config"
	"igvtools/internal/devengado"
	"igvtools/internal/store"
	"igvtools/internal/tesoreria"
)

// app bundles what ledger and treasury commands need.
type app struct {
	cfg      *config.Config
	stores   *store.Stores
	ledger   *devengado.Manager
	treasury *tesoreria.Service
}

// openApp loads the configuration and opens the record stores.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	stores, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ledger := devengado.NewManager(stores.Devengados)
	return &app{
		cfg:      cfg,
		stores:   stores,
		ledger:   ledger,
		treasury: tesoreria.NewService(ledger, stores.Pagos, cfg.DataDir),
	}, nil
}

func (a *app) close(log zerolog.Logger) {
	if err := a.stores.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close store")
	}
}

// commandContext creates a context with timeout that is canceled on SIGINT
// or SIGTERM.
func commandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// userError unwraps validation errors to the message the operator should
// read; other errors are returned as they are.
func userError(err error) error {
	var ve *devengado.ValidationError
	if errors.As(err, &ve) {
		return errors.New(ve.Message)
	}
	return err
}

// writeJSON prints v as indented JSON to outputPath, or stdout when empty.
// statusWriter is where progress lines go: stderr when stdout carries JSON.
func statusWriter(asJSON bool) io.Writer {
	if asJSON {
		return os.Stderr
	}
	return os.Stdout
}

func writeJSON(v interface{}, outputPath string, log zerolog.Logger) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath == "" {
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("JSON written to file")
	return nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", arg)
	}
	return id, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
