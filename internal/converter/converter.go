// =============================================================================
// UBL-TR to XLSX Converter - Converter Module
// =============================================================================
//
// This module drives a batch of invoices through the extractors. It is the
// only place that knows about more than one document at a time.
//
// CONVERSION PIPELINE (per document):
//   1. Parse the XML once
//   2. Extract the Deductible VAT List row
//   3. Extract the Stock List rows
//   4. Report progress
//
// Both extractions always run, whatever report mode was selected, so either
// table can be produced from the same batch. A failure in one document is
// recorded as a warning and never stops the others.
//
// CONCURRENCY:
//   Documents may be extracted in parallel (WithConcurrency). Results are
//   always assembled in input order, so the tables are deterministic.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/UBLTR-to-XLSX-conversion/internal/ubltr"
)

// =============================================================================
// INPUT AND RESULT STRUCTURES
// =============================================================================

// Input is one uploaded invoice.
type Input struct {
	// Name identifies the document in warnings, usually its file name.
	Name string

	// Data is the raw XML.
	Data []byte
}

// Stage names the step of a document's processing that failed.
type Stage string

const (
	StageParse     Stage = "parse"
	StageAggregate Stage = "aggregate"
	StageLines     Stage = "lines"
	StagePanic     Stage = "panic"
)

// Warning is a recoverable per-document failure.
type Warning struct {
	File  string
	Stage Stage
	Err   error
}

// String formats the warning for an operator.
func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %v", w.File, w.Stage, w.Err)
}

// FileResult is the outcome of processing a single document.
type FileResult struct {
	Name string

	// Aggregate is nil when the aggregate extraction failed.
	Aggregate *types.InvoiceAggregateRecord

	// Lines holds the Stock List rows; nil when the line extraction failed.
	Lines []types.InvoiceLineRecord

	Warnings []Warning

	Duration time.Duration
}

// OK reports whether the document was processed without warnings.
func (f FileResult) OK() bool {
	return len(f.Warnings) == 0
}

// Result is the outcome of a batch.
type Result struct {
	// Mode is the report mode the batch was run for.
	Mode types.ReportMode

	// Files holds one entry per processed input, in input order.
	Files []FileResult

	// Aggregates and Lines are the collected records, in input order.
	Aggregates []types.InvoiceAggregateRecord
	Lines      []types.InvoiceLineRecord

	// Warnings lists every per-document failure, in input order.
	Warnings []Warning

	Stats Stats
}

// Stats contains batch statistics.
type Stats struct {
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
	Duration       time.Duration
}

// Records returns the number of records the selected mode produced.
func (r *Result) Records() int {
	if r.Mode == types.ModeLines {
		return len(r.Lines)
	}
	return len(r.Aggregates)
}

// HasOutput reports whether the selected mode produced anything to emit.
func (r *Result) HasOutput() bool {
	return r.Records() > 0
}

// Progress is reported after each processed document.
type Progress struct {
	Done   int
	Total  int
	File   string
	Failed bool
}

// ProgressFunc receives progress updates. It is called from a single
// goroutine.
type ProgressFunc func(Progress)

// =============================================================================
// DRIVER
// =============================================================================

// Driver runs batches of invoices through the extractors.
type Driver struct {
	workers int
	log     zerolog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithConcurrency sets how many documents are extracted in parallel.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(d *Driver) {
		if n < 1 {
			n = 1
		}
		d.workers = n
	}
}

// WithLogger sets the logger used for per-document diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) {
		d.log = l
	}
}

// New creates a Driver. By default it processes documents sequentially and
// does not log.
func New(opts ...Option) *Driver {
	d := &Driver{
		workers: 1,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run processes inputs for the given report mode. Per-document failures end
// up in Result.Warnings. The returned error is non-nil only when ctx is
// cancelled; the Result then holds the documents finished before that.
func (d *Driver) Run(ctx context.Context, inputs []Input, mode types.ReportMode, progress ProgressFunc) (*Result, error) {
	startTime := time.Now()

	files := make([]FileResult, len(inputs))
	finished := make([]bool, len(inputs))
	done := make(chan int)
	sem := make(chan struct{}, d.workers)

	// Schedule documents until the batch is exhausted or cancelled.
	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(done)
		}()

		for i := range inputs {
			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				files[i] = d.processFile(inputs[i])
				<-sem
				done <- i
			}(i)
		}
	}()

	completed := 0
	for i := range done {
		finished[i] = true
		completed++
		if progress != nil {
			progress(Progress{
				Done:   completed,
				Total:  len(inputs),
				File:   inputs[i].Name,
				Failed: !files[i].OK(),
			})
		}
	}

	result := &Result{Mode: mode}
	for i, fr := range files {
		if !finished[i] {
			continue
		}
		result.Files = append(result.Files, fr)
		if fr.Aggregate != nil {
			result.Aggregates = append(result.Aggregates, *fr.Aggregate)
		}
		result.Lines = append(result.Lines, fr.Lines...)
		result.Warnings = append(result.Warnings, fr.Warnings...)
		if !fr.OK() {
			result.Stats.FailedFiles++
		}
	}

	result.Stats.TotalFiles = len(inputs)
	result.Stats.ProcessedFiles = len(result.Files)
	result.Stats.Duration = time.Since(startTime)

	d.log.Info().
		Str("mode", string(mode)).
		Int("files", result.Stats.TotalFiles).
		Int("failed", result.Stats.FailedFiles).
		Int("records", result.Records()).
		Dur("elapsed", result.Stats.Duration).
		Msg("batch complete")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch interrupted after %d of %d files: %w", completed, len(inputs), err)
	}
	return result, nil
}

// processFile parses one document and runs both extractors over it.
func (d *Driver) processFile(in Input) (fr FileResult) {
	startTime := time.Now()
	fr.Name = in.Name

	defer func() {
		if r := recover(); r != nil {
			fr.Aggregate = nil
			fr.Lines = nil
			fr.warn(d.log, StagePanic, fmt.Errorf("unexpected failure: %v", r))
		}
		fr.Duration = time.Since(startTime)
	}()

	doc, err := ubltr.ParseDocument(in.Data)
	if err != nil {
		fr.warn(d.log, StageParse, err)
		return fr
	}

	if agg, err := doc.Aggregate(); err != nil {
		fr.warn(d.log, StageAggregate, err)
	} else {
		fr.Aggregate = &agg
	}

	if lines, err := doc.LineRecords(); err != nil {
		fr.warn(d.log, StageLines, err)
	} else {
		fr.Lines = lines
	}

	d.log.Debug().
		Str("file", in.Name).
		Int("lines", len(fr.Lines)).
		Bool("aggregate", fr.Aggregate != nil).
		Msg("document processed")

	return fr
}

func (f *FileResult) warn(log zerolog.Logger, stage Stage, err error) {
	f.Warnings = append(f.Warnings, Warning{File: f.Name, Stage: stage, Err: err})
	log.Warn().
		Str("file", f.Name).
		Str("stage", string(stage)).
		Err(err).
		Msg("document skipped")
}
