// Package pipeline orchestrates one ingestion batch: discover candidate
// documents on the regulator listing, then fetch, extract, reconstruct,
// classify and store each one independently.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pitwall/stewarding/internal/cache"
	"github.com/pitwall/stewarding/internal/classify"
	"github.com/pitwall/stewarding/internal/discover"
	"github.com/pitwall/stewarding/internal/extract"
	"github.com/pitwall/stewarding/internal/llm"
	"github.com/pitwall/stewarding/internal/model"
	"github.com/pitwall/stewarding/internal/store"
	"github.com/pitwall/stewarding/internal/worker"
)

// Mode selects how much of the season listing a batch covers.
type Mode string

const (
	// ModeNewest ingests only documents published after the stored
	// watermark.
	ModeNewest Mode = "newest"
	// ModeAll ingests the full season listing.
	ModeAll Mode = "all"
)

// Injection points for tests that feed fixture tokens instead of real PDFs.
var (
	tokenizeBuffer = extract.Tokenize
	tokenizeFile   = extract.TokenizeFile
)

// Failure describes one document that could not be ingested.
type Failure struct {
	Href  string `json:"href"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// BatchReport is the outcome of one RunBatch call. Failures are per
// document; a non-nil error from RunBatch means discovery itself failed and
// no documents were attempted.
type BatchReport struct {
	Series     model.SeriesID `json:"series"`
	Year       string         `json:"year"`
	Discovered int            `json:"discovered"`
	Stored     int            `json:"stored"`
	Skipped    int            `json:"skipped"`
	Failures   []Failure      `json:"failures,omitempty"`
	Digest     string         `json:"digest,omitempty"`
}

// Pipeline drives ingestion batches against one store.
type Pipeline struct {
	cfg     *model.Config
	fetcher *Fetcher
	store   store.Store
	logger  *slog.Logger
	loc     *time.Location
	digest  *llm.Summarizer
}

// New wires a pipeline from configuration. The document timezone must
// resolve, everything downstream stamps dates with it.
func New(cfg *model.Config, st store.Store, logger *slog.Logger) (*Pipeline, error) {
	loc, err := time.LoadLocation(cfg.Ingest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Ingest.Timezone, err)
	}

	var listingCache cache.Cache
	if cfg.Cache.Enabled {
		listingCache = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
	}

	return &Pipeline{
		cfg:     cfg,
		fetcher: NewFetcher(cfg.HTTP, cfg.RateLimit, listingCache, cfg.Cache.TTL),
		store:   st,
		logger:  logger,
		loc:     loc,
		digest:  llm.NewSummarizer(cfg.LLM),
	}, nil
}

// RunBatch ingests one series season. Per-document failures land in the
// report; only discovery failures are returned as an error.
func (p *Pipeline) RunBatch(ctx context.Context, seriesID, year string, mode Mode) (*BatchReport, error) {
	series, ok := model.LookupSeries(seriesID)
	if !ok {
		return nil, fmt.Errorf("unknown series %q", seriesID)
	}

	report := &BatchReport{Series: series.ID, Year: year}

	refs, err := p.discover(ctx, series, year, mode)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	report.Discovered = len(refs)
	if len(refs) == 0 {
		p.logger.Info("no new documents", "series", series.ID, "year", year)
		return report, nil
	}

	var (
		mu     sync.Mutex
		stored []*model.PenaltyRecord
	)

	pool := worker.NewPool(p.cfg.Concurrency.Workers)
	pool.Start()
	for _, ref := range refs {
		pool.Submit(&ingestJob{
			pipeline: p,
			series:   series,
			ref:      ref,
			onStored: func(rec *model.PenaltyRecord) {
				mu.Lock()
				stored = append(stored, rec)
				mu.Unlock()
			},
		})
	}

	for _, outcome := range pool.Wait() {
		switch outcome.Status {
		case worker.StatusStored:
			report.Stored++
		case worker.StatusSkipped:
			report.Skipped++
		case worker.StatusFailed:
			report.Failures = append(report.Failures, Failure{
				Href:  outcome.Ref.Href,
				Stage: outcome.Stage,
				Error: outcome.Err.Error(),
			})
			p.logger.Warn("document failed",
				"href", outcome.Ref.Href, "stage", outcome.Stage, "error", outcome.Err)
		}
	}

	p.runDigest(ctx, report, stored)

	p.logger.Info("batch finished",
		"series", series.ID, "year", year,
		"discovered", report.Discovered, "stored", report.Stored,
		"skipped", report.Skipped, "failed", len(report.Failures))
	return report, nil
}

// discover fetches and parses the listing, applying the watermark in
// ModeNewest.
func (p *Pipeline) discover(ctx context.Context, series model.Series, year string, mode Mode) ([]model.DocumentReference, error) {
	listingURL := series.ListingURL(p.cfg.Ingest.BaseURL, year)
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	opts := discover.Options{Grace: p.cfg.Ingest.GraceWindow}
	if mode == ModeNewest {
		watermark, err := p.store.LatestDocDate(ctx, series.ID, year)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Empty partition, fall through to a full pass
		case err != nil:
			return nil, fmt.Errorf("load watermark: %w", err)
		default:
			opts.Watermark = watermark
		}
	}

	body, err := p.fetcher.FetchListing(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	refs, err := discover.Candidates(bytes.NewReader(body), base, series, opts)
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// runDigest asks the optional summarizer for a prose digest of what was
// stored. Failures only warn, the batch outcome is already final.
func (p *Pipeline) runDigest(ctx context.Context, report *BatchReport, stored []*model.PenaltyRecord) {
	if p.digest == nil || len(stored) == 0 {
		return
	}
	text, err := p.digest.Digest(ctx, stored)
	if err != nil {
		p.logger.Warn("batch digest failed", "error", err)
		return
	}
	report.Digest = text
}

// ingestJob runs the per-document stages. Stage names in the outcome let
// operators tell a network problem from a parser problem.
type ingestJob struct {
	pipeline *Pipeline
	series   model.Series
	ref      model.DocumentReference
	onStored func(*model.PenaltyRecord)
}

func (j *ingestJob) Execute(ctx context.Context) worker.Outcome {
	p := j.pipeline

	tokens, stage, err := j.tokenize(ctx)
	if err != nil {
		return j.fail(stage, err)
	}

	// The href keeps the publisher's casing; ref.FileName is lowercased
	// for filtering only and must not leak into the stored record.
	rec, err := extract.Reconstruct(j.ref.Href, tokens, j.series, p.loc)
	if err != nil {
		return j.fail("reconstruct", err)
	}
	rec.Series = j.series.ID

	decision := strings.Join(rec.IncidentInfo.Decision, " ")
	rec.PenaltyType = classify.Penalty(decision)

	key := rec.Key()
	if _, err := p.store.FindByNaturalKey(ctx, key); err == nil {
		return worker.Outcome{Ref: j.ref, Status: worker.StatusSkipped}
	} else if !errors.Is(err, store.ErrNotFound) {
		return j.fail("persist", err)
	}

	if err := p.store.Insert(ctx, rec); err != nil {
		return j.fail("persist", err)
	}
	if j.onStored != nil {
		j.onStored(rec)
	}
	p.logger.Info("document stored",
		"series", rec.Series, "doc", rec.DocName,
		"penalty", rec.PenaltyType, "label", classify.Format(rec.PenaltyType, decision))
	return worker.Outcome{Ref: j.ref, Status: worker.StatusStored}
}

// tokenize fetches the document and extracts its tokens, honoring the
// configured fetch mode. The returned stage names the step that failed.
func (j *ingestJob) tokenize(ctx context.Context) ([]string, string, error) {
	p := j.pipeline
	if p.cfg.Ingest.FetchMode == model.FetchModeTempFile {
		path, cleanup, err := p.fetcher.FetchDocumentToFile(ctx, j.ref.Href)
		if err != nil {
			return nil, "fetch", err
		}
		defer cleanup()
		tokens, err := tokenizeFile(path)
		if err != nil {
			return nil, "extract", err
		}
		return tokens, "", nil
	}

	buf, err := p.fetcher.FetchDocument(ctx, j.ref.Href)
	if err != nil {
		return nil, "fetch", err
	}
	tokens, err := tokenizeBuffer(buf)
	if err != nil {
		return nil, "extract", err
	}
	return tokens, "", nil
}

func (j *ingestJob) fail(stage string, err error) worker.Outcome {
	return worker.Outcome{Ref: j.ref, Status: worker.StatusFailed, Stage: stage, Err: err}
}
