package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgallion1/docsections/internal/collection"
	"github.com/dgallion1/docsections/internal/config"
	"github.com/dgallion1/docsections/internal/doctree"
	"github.com/dgallion1/docsections/internal/parser"
	"github.com/dgallion1/docsections/internal/report"
)

// ErrQueueFull is returned by Submit when no more runs can be queued.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator runs collections: synchronously through ProcessCollection and
// ProcessRoot, or queued through Submit once Start has been called.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start before Submit.
func NewOrchestrator(cfg config.Config, dec parser.Decoder, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: NewWorker(dec, log, cfg.PageScanLimit, cfg.MaxSections),
		log:    log,
		cfg:    cfg,
	}
}

// Result is the outcome of one collection run.
type Result struct {
	Output *collection.Output
	// Failed lists documents that could not be decoded.
	Failed []string
	// Missing lists documents the descriptor names but PDFs/ lacks.
	Missing []string
}

// ProcessCollection runs every PDF of the collection in dir through the
// worker pool and writes the output descriptor. Document failures are
// contained; only descriptor and write errors are returned.
func (o *Orchestrator) ProcessCollection(ctx context.Context, dir string) (*Result, error) {
	log := o.log.With("collection", filepath.Base(dir))

	in, err := collection.ReadInput(dir)
	if err != nil {
		return nil, err
	}
	names, err := collection.ListPDFs(dir)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, ref := range collection.MissingDocuments(in, names) {
		log.Warn("listed document not found", "document", ref.Filename, "title", ref.Title)
		missing = append(missing, ref.Filename)
	}

	pdfDir := filepath.Join(dir, collection.PDFDir)
	contribs := o.processDocuments(ctx, pdfDir, names, in)
	// An interrupted run leaves any previous output in place.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		extracted []doctree.ExtractedSection
		analysis  []doctree.SubsectionAnalysis
		failed    []string
	)
	for _, c := range contribs {
		if c.Err != nil {
			failed = append(failed, c.Document)
		}
		extracted = append(extracted, c.Sections...)
		analysis = append(analysis, c.Analyses...)
	}

	out := collection.NewOutput(in, names, extracted, analysis)
	if err := collection.WriteOutput(dir, out); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	if o.cfg.WriteReport {
		if err := report.Write(dir, out); err != nil {
			log.Warn("report failed", "error", err)
		}
	}

	log.Info("processed collection",
		"documents", len(names),
		"failed", len(failed),
		"sections", len(extracted),
	)
	return &Result{Output: out, Failed: failed, Missing: missing}, nil
}

// processDocuments fans the documents out over at most WorkerCount
// goroutines and returns contributions in dispatch order.
func (o *Orchestrator) processDocuments(ctx context.Context, pdfDir string, names []string, in collection.Input) []Contribution {
	type docResult struct {
		idx int
		c   Contribution
	}
	results := make(chan docResult, len(names))
	sem := make(chan struct{}, max(o.cfg.WorkerCount, 1))

	for i, name := range names {
		sem <- struct{}{}
		go func(i int, name string) {
			defer func() { <-sem }()
			c := o.worker.Process(ctx, DocumentRequest{
				Path:        filepath.Join(pdfDir, name),
				Persona:     in.Persona,
				JobToBeDone: in.JobToBeDone,
			})
			results <- docResult{idx: i, c: c}
		}(i, name)
	}

	contribs := make([]Contribution, len(names))
	for range names {
		r := <-results
		contribs[r.idx] = r.c
	}
	return contribs
}

// RootSummary lists the collections a ProcessRoot call handled.
type RootSummary struct {
	Processed []string
	Failed    []string
}

// ProcessRoot processes every collection directory under root in name order.
// A failing collection is logged and skipped; only an unreadable root is an error.
func (o *Orchestrator) ProcessRoot(ctx context.Context, root string) (RootSummary, error) {
	var summary RootSummary
	names, err := collection.ListCollections(root)
	if err != nil {
		return summary, err
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if _, err := o.ProcessCollection(ctx, filepath.Join(root, name)); err != nil {
			o.log.Error("collection failed", "collection", name, "error", err)
			summary.Failed = append(summary.Failed, name)
			continue
		}
		summary.Processed = append(summary.Processed, name)
	}
	return summary, nil
}

// Start launches the run worker and the job cleanup loop. Runs execute one
// at a time so collections never overlap.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				o.run(workerCtx, job)
			}
		}
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "collection", job.Collection)
	job.SetStatus(StatusRunning, "processing")

	res, err := o.ProcessCollection(ctx, job.Dir())
	if err != nil {
		log.Error("collection failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "processing")
		return
	}
	for _, name := range res.Failed {
		job.AddError("decode failed: " + name)
	}
	for _, name := range res.Missing {
		job.AddError("listed document not found: " + name)
	}
	job.SetResult(len(res.Output.Metadata.InputDocuments), len(res.Failed), len(res.Output.ExtractedSections))
	job.SetStatus(StatusCompleted, "done")
}

// Submit queues a collection run.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Root returns the configured collections root.
func (o *Orchestrator) Root() string {
	return o.cfg.CollectionsRoot
}
