package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/masahif/seoplanner/internal/config"
	"github.com/masahif/seoplanner/internal/discovery"
	"github.com/masahif/seoplanner/internal/export"
	"github.com/masahif/seoplanner/internal/planner"
	"github.com/masahif/seoplanner/internal/storage"
)

// session holds what a command needs: configuration, store and service
type session struct {
	cfg   *config.Config
	store *storage.SQLiteStorage
	svc   *planner.Service
}

// openSession loads the configuration, opens the database and wires the
// discovery adapter when a provider key is available
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	path, err := cfg.DatabaseFile()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var opts []planner.Option
	adapter, err := newDiscoverer(cfg)
	switch {
	case err == nil:
		opts = append(opts, planner.WithDiscoverer(adapter))
	case errors.Is(err, planner.ErrNoProvider):
		slog.Debug("Discovery disabled", "reason", err)
	default:
		_ = store.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: store, svc: planner.NewService(store, opts...)}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// newDiscoverer builds the adapter for the active provider. The configured
// model only applies to the default provider; a fallback provider uses its
// own first model.
func newDiscoverer(cfg *config.Config) (*discovery.Adapter, error) {
	provider, ok := cfg.ActiveProvider()
	if !ok {
		return nil, planner.ErrNoProvider
	}
	model := ""
	if provider == cfg.AI.DefaultProvider {
		model = cfg.AI.DefaultModel
	}

	completer, err := discovery.NewCompleter(discovery.CompleterConfig{
		Provider:    provider,
		APIKey:      cfg.APIKey(provider),
		Model:       model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.DiscoveryMaxTokens(),
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Discovery adapter configured", "provider", provider, "model", model)
	return discovery.NewAdapter(completer, discovery.AdapterConfig{
		Timeout:           cfg.AI.Timeout,
		MaxAttempts:       cfg.AI.MaxAttempts,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
	}), nil
}

func printJSON(w io.Writer, v any) error {
	data, err := export.JSON(v, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
