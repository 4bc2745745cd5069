package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitwall/stewarding/internal/model"
	"github.com/pitwall/stewarding/internal/pipeline"
	"github.com/pitwall/stewarding/internal/store"
)

var (
	ingestYear    string
	ingestAll     bool
	ingestTimeout time.Duration
	memoryStore   bool
	fetchMode     string
	projectID     string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <series>",
	Short: "Ingest newly published penalty documents for a series",
	Long: `Ingest discovers decision documents on the regulator listing for the
given series and season, parses each into a structured penalty record,
and stores the new ones. Already-stored documents are skipped, so the
command is safe to run on a schedule.

Example:
  stewarding ingest f1
  stewarding ingest f2 --year 2024 --all
  stewarding ingest f1 --memory-store -v`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestYear, "year", fmt.Sprint(time.Now().Year()), "season year")
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "ingest the full season listing instead of only documents newer than the stored watermark")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "overall batch timeout")
	ingestCmd.Flags().BoolVar(&memoryStore, "memory-store", false, "use an in-process store (records are discarded on exit)")
	ingestCmd.Flags().StringVar(&fetchMode, "fetch-mode", "", "document fetch mode: buffer or tempfile")
	ingestCmd.Flags().StringVar(&projectID, "project", "", "document store project ID")
}

func runIngest(cmd *cobra.Command, args []string) error {
	seriesID := args[0]
	if _, ok := model.LookupSeries(seriesID); !ok {
		return fmt.Errorf("unknown series %q (supported: %v)", seriesID, model.SeriesIDs())
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	cfg := loadConfig()
	if fetchMode != "" {
		cfg.Ingest.FetchMode = model.FetchMode(fetchMode)
	}
	if projectID != "" {
		cfg.Store.ProjectID = projectID
	}
	if memoryStore {
		cfg.Store.Backend = "memory"
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	logger := newLogger()
	p, err := pipeline.New(cfg, st, logger)
	if err != nil {
		return err
	}

	mode := pipeline.ModeNewest
	if ingestAll {
		mode = pipeline.ModeAll
	}

	report, err := p.RunBatch(ctx, seriesID, ingestYear, mode)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	fmt.Println(string(out))

	if len(report.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d documents failed\n", len(report.Failures), report.Discovered)
	}
	return nil
}

// openStore builds the configured store backend.
func openStore(ctx context.Context, cfg *model.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "firestore":
		if cfg.Store.ProjectID == "" {
			return nil, fmt.Errorf("store.project_id is required for the firestore backend")
		}
		return store.NewFirestore(ctx, cfg.Store.ProjectID)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
