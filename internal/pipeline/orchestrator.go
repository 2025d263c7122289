package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgriffen/mksheets/internal/config"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/render"
)

// Orchestrator manages the sheet build pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	registry *content.Registry
	stats    *render.Stats
	log      *slog.Logger
	cfg      config.Config
	opts     Options

	cancel     context.CancelFunc
	closeQueue sync.Once
	workerWg   sync.WaitGroup
	cleanupWg  sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, registry *content.Registry, opts Options, stats *render.Stats, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		registry: registry,
		stats:    stats,
		log:      log,
		cfg:      cfg,
		opts:     opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.workerWg.Add(1)
		go func() {
			defer o.workerWg.Done()
			w := NewWorker(o.registry, o.log, o.opts, o.stats)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup. Tracked separately from the workers: the
	// cleanup loop only exits on cancel, so Drain must be able to wait for
	// the workers alone before cancelling it.
	o.cleanupWg.Add(1)
	go func() {
		defer o.cleanupWg.Done()
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

// Stop cancels in-flight work and shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.closeQueue.Do(func() { close(o.queue) })
	o.workerWg.Wait()
	o.cleanupWg.Wait()
}

// Drain stops accepting new jobs and waits for queued work to finish.
// Used by the batch CLI, where every submitted file must run to completion.
func (o *Orchestrator) Drain() {
	o.closeQueue.Do(func() { close(o.queue) })
	o.workerWg.Wait()
	if o.cancel != nil {
		o.cancel()
	}
	o.cleanupWg.Wait()
}

// NewJob creates a queued job for the given input file.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	j := &Job{
		ID:        generateULID(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	j.SetFileData(data)
	return j
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs returns snapshots of every tracked job.
func (o *Orchestrator) Jobs() []JobSnapshot {
	return o.jobs.Snapshots()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
