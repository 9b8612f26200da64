// Package pipeline orchestrates a full extraction run: scan, normalize in
// parallel, validate and deduplicate in a deterministic merge, aggregate, and
// write artifacts. Parallelism never leaks into the outputs; identical inputs
// produce byte-identical artifacts at any worker count.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/aggregate"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/normalizer"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/observability"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/scanner"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/validator"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/writer"
)

// Publisher ships accepted records to an external sink after a successful
// run. Publish failures degrade the run but never fail it.
type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.CanonicalRecord) error
}

// Options carries the run-level tuning knobs.
type Options struct {
	InputPaths       []string
	Workers          int
	GridResolution   float64
	InvalidThreshold float64
	StrictMode       bool
	RunDeadline      time.Duration // zero means no deadline
}

// Pipeline wires the stages of one extraction run.
type Pipeline struct {
	opts    Options
	scan    *scanner.Scanner
	norm    *normalizer.Normalizer
	out     *writer.Writer
	pub     Publisher // nil disables publishing
	logger  *slog.Logger
	metrics *observability.Metrics

	filesProcessed atomic.Int64
	rowsRead       atomic.Int64
}

// Progress is a point-in-time snapshot of a running pipeline.
type Progress struct {
	FilesProcessed int64 `json:"files_processed"`
	RowsRead       int64 `json:"rows_read"`
}

func New(opts Options, scan *scanner.Scanner, norm *normalizer.Normalizer, out *writer.Writer, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		opts:    opts,
		scan:    scan,
		norm:    norm,
		out:     out,
		pub:     pub,
		logger:  logger,
		metrics: metrics,
	}
}

// Snapshot reports progress counters for the current or last run.
func (p *Pipeline) Snapshot() Progress {
	return Progress{
		FilesProcessed: p.filesProcessed.Load(),
		RowsRead:       p.rowsRead.Load(),
	}
}

// workerResult is one worker's shard of normalized candidates plus its
// accounting. Classification happens later, in the single-threaded merge, so
// first-seen-wins deduplication stays deterministic.
type workerResult struct {
	cands  []domain.Candidate
	report domain.ValidationReport
}

// Run executes one extraction run. The run report is returned even on fatal
// errors so callers always have the accounting; the error distinguishes fatal
// conditions (output failure, no valid records, strict violation).
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: domain.Now(),
	}
	logger := p.logger.With("run_id", report.RunID)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer func() {
		p.metrics.RunDuration.Observe(domain.Now().Sub(report.StartedAt).Seconds())
	}()

	runCtx := ctx
	if p.opts.RunDeadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.opts.RunDeadline)
		defer cancel()
	}

	logger.Info("run started",
		"inputs", p.opts.InputPaths, "workers", p.opts.Workers, "strict", p.opts.StrictMode)

	results, stats, runErr := p.extract(runCtx, logger)
	report.Incomplete = runErr != nil && (errors.Is(runErr, context.DeadlineExceeded) || errors.Is(runErr, context.Canceled))
	if runErr != nil && !report.Incomplete {
		// Worker errors are all classified as skips inside extract; an
		// unclassified error here means the group context collapsed.
		report.Incomplete = true
		logger.Error("extraction stopped early", "error", runErr)
	}

	for kind, n := range stats.Skipped {
		for i := 0; i < n; i++ {
			report.CountSkipped(kind)
		}
	}

	records, agg := p.merge(logger, &report.ValidationReport, results)

	report.Degraded = report.InvalidFraction() > p.opts.InvalidThreshold
	if report.Degraded {
		logger.Warn("invalid fraction over threshold",
			"fraction", report.InvalidFraction(), "threshold", p.opts.InvalidThreshold)
	}

	fatal := p.classify(&report, records)

	// Artifacts and the report are written even for fatal outcomes, so a
	// rerun can be diagnosed from the output directory alone.
	if err := p.writeArtifacts(records, agg, &report); err != nil {
		report.Outcome = domain.OutcomeFatal
		report.FinishedAt = domain.Now()
		if werr := p.out.WriteReport(report); werr != nil {
			logger.Error("report write failed after artifact failure", "error", werr)
		}
		return report, err
	}

	if fatal == nil && p.pub != nil && len(records) > 0 {
		if err := p.pub.PublishBatch(ctx, records); err != nil {
			logger.Error("publish failed", "error", err, "records", len(records))
		}
	}

	report.FinishedAt = domain.Now()
	if err := p.out.WriteReport(report); err != nil {
		return report, err
	}

	logger.Info("run finished",
		"outcome", report.Outcome,
		"valid", report.Valid,
		"invalid", report.Invalid(),
		"duplicates", report.Duplicates,
		"files", report.FilesScanned,
		"incomplete", report.Incomplete)
	return report, fatal
}

// extract scans for files and fans them out to normalization workers.
func (p *Pipeline) extract(ctx context.Context, logger *slog.Logger) ([]workerResult, scanner.Stats, error) {
	files := make(chan domain.RawFile)
	results := make([]workerResult, p.opts.Workers)
	var stats scanner.Stats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(files)
		var err error
		stats, err = p.scan.Scan(gctx, p.opts.InputPaths, func(f domain.RawFile) error {
			select {
			case files <- f:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		return err
	})

	for i := 0; i < p.opts.Workers; i++ {
		res := &results[i]
		g.Go(func() error {
			for file := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				p.processFile(gctx, logger, file, res)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, stats, err
}

// processFile normalizes one file into the worker's shard. Per-file failures
// are counted as skips; rows decoded before a mid-file failure are kept.
func (p *Pipeline) processFile(ctx context.Context, logger *slog.Logger, file domain.RawFile, res *workerResult) {
	start := domain.Now()
	cands, err := p.norm.NormalizeFile(ctx, file)
	p.metrics.FileProcessingDuration.Observe(domain.Now().Sub(start).Seconds())

	res.cands = append(res.cands, cands...)
	res.report.RowsRead += len(cands)
	p.rowsRead.Add(int64(len(cands)))

	if err != nil {
		var ferr *domain.FormatError
		kind := domain.SkipScan
		if errors.As(err, &ferr) {
			kind = domain.SkipFormat
		}
		res.report.CountSkipped(kind)
		p.metrics.FilesSkipped.WithLabelValues(kind).Inc()
		logger.Warn("file failed mid-read", "path", file.Path, "rows_kept", len(cands), "error", err)
		return
	}

	res.report.FilesScanned++
	p.filesProcessed.Add(1)
}

// merge classifies all candidates in a deterministic order, deduplicates, and
// aggregates the survivors.
func (p *Pipeline) merge(logger *slog.Logger, report *domain.ValidationReport, results []workerResult) ([]domain.CanonicalRecord, *aggregate.Result) {
	var cands []domain.Candidate
	for _, res := range results {
		cands = append(cands, res.cands...)
		report.Merge(res.report)
	}

	// Sorting by source position makes first-seen-wins independent of
	// worker scheduling.
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i].Record.Source, cands[j].Record.Source
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Row < b.Row
	})

	dedup := validator.NewDeduper(logger)
	agg := aggregate.New(p.opts.GridResolution)
	var records []domain.CanonicalRecord

	for _, cand := range cands {
		out := validator.Check(cand)
		if out.Status == validator.StatusInvalid {
			report.CountInvalid(out.Reason)
			p.metrics.RecordsInvalid.WithLabelValues(string(out.Reason)).Inc()
			logger.Debug("record rejected", "source", cand.Record.Source.String(), "reason", out.Reason)
			continue
		}

		out = dedup.Admit(cand.Record)
		if out.Status == validator.StatusDuplicate {
			report.Duplicates++
			p.metrics.RecordsDuplicate.Inc()
			logger.Debug("duplicate dropped",
				"source", cand.Record.Source.String(), "kept", out.DuplicateOf.String())
			continue
		}

		report.Valid++
		p.metrics.RecordsValid.Inc()
		records = append(records, cand.Record)
		agg.Observe(cand.Record)
	}
	return records, agg
}

// classify settles the run outcome and returns the fatal error, if any.
func (p *Pipeline) classify(report *domain.RunReport, records []domain.CanonicalRecord) error {
	switch {
	case p.opts.StrictMode && report.Invalid() > 0:
		report.Outcome = domain.OutcomeFatal
		return domain.ErrStrictViolation
	case len(records) == 0:
		report.Outcome = domain.OutcomeFatal
		return domain.ErrNoValidRecords
	case report.Degraded || report.Incomplete:
		report.Outcome = domain.OutcomeDegraded
		return nil
	default:
		report.Outcome = domain.OutcomeSuccess
		return nil
	}
}

func (p *Pipeline) writeArtifacts(records []domain.CanonicalRecord, agg *aggregate.Result, report *domain.RunReport) error {
	if err := p.out.WriteRecords(records); err != nil {
		return err
	}
	return p.out.WriteAggregates(agg)
}
