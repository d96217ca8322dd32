// Package cli builds the venuectl command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/venuedesk/venuedesk/internal/auth"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/quote"
)

// Migrator runs schema migrations.
type Migrator func(ctx context.Context, dir db.Direction) error

// CatalogueImporter replaces the stored catalogue and returns per-formula warnings.
type CatalogueImporter func(ctx context.Context, cat quote.Catalogue) (map[string][]string, error)

// TokenSigner issues admin bearer tokens.
type TokenSigner interface {
	Sign(p auth.Principal, ttl time.Duration) (string, error)
}

// JobQueue is the subset of queue operations exposed on the command line.
type JobQueue interface {
	TriggerCleanup(ctx context.Context, retentionHours int) (string, error)
	ResendNotification(ctx context.Context, leadID string) (string, error)
	InspectQueue(ctx context.Context) (QueueStats, error)
	Close() error
}

// Dependencies are resolved lazily so that offline commands work without configuration.
type Dependencies struct {
	Migrator  func() (Migrator, func(), error)
	Importer  func() (CatalogueImporter, func(), error)
	Signer    func() (TokenSigner, error)
	Jobs      func() (JobQueue, error)
	Metrics   *observability.Metrics
	OpenInput func(path string) (io.ReadCloser, error)
}

var errMissingDependency = errors.New("venuectl: command not configured")

// NewRootCommand builds the complete command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	if deps.OpenInput == nil {
		deps.OpenInput = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	root := &cobra.Command{
		Use:           "venuectl",
		Short:         "Operate the venue quote engine: price selections, migrate, import catalogues.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.AddCommand(newQuoteCommand(deps))
	root.AddCommand(newAvailabilityCommand(deps))
	root.AddCommand(newMigrateCommand(deps))
	root.AddCommand(newCatalogueCommand(deps))
	root.AddCommand(newTokenCommand(deps))
	root.AddCommand(newJobsCommand(deps))
	return root
}

func addCatalogueFlag(flags *pflag.FlagSet) {
	flags.String("catalogue", "", "Catalogue YAML file (defaults to the built-in seed).")
}

func loadCatalogue(cmd *cobra.Command, deps Dependencies) (quote.Catalogue, error) {
	path, _ := cmd.Flags().GetString("catalogue")
	if path == "" {
		return quote.SeedCatalogue(), nil
	}
	return readCatalogue(deps, path)
}

func readCatalogue(deps Dependencies, path string) (quote.Catalogue, error) {
	f, err := deps.OpenInput(path)
	if err != nil {
		return quote.Catalogue{}, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()
	return quote.LoadCatalogueYAML(f)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
