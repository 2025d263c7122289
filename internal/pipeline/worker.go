package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgriffen/mksheets/internal/charsheet"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/loader"
	"github.com/dgriffen/mksheets/internal/render"
)

// Options controls how rendered documents are produced.
type Options struct {
	OutputDir     string
	Format        render.Format
	SpellsByLevel bool
	KeepTemp      bool
	LatexCommand  string
}

// Worker builds a single character sheet per job.
type Worker struct {
	registry *content.Registry
	log      *slog.Logger
	opts     Options
	stats    *render.Stats
}

func NewWorker(registry *content.Registry, log *slog.Logger, opts Options, stats *render.Stats) *Worker {
	if opts.Format == "" {
		opts.Format = render.FormatPDF
	}
	return &Worker{
		registry: registry,
		log:      log,
		opts:     opts,
		stats:    stats,
	}
}

// Process runs the full build pipeline for a job. Failures are recorded on
// the job; they never abort the batch.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.Filename)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	ld, err := loader.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		w.fail(job, StatusLoading, err)
		return
	}
	props, err := ld.Load(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("load failed", "error", err)
		w.fail(job, StatusLoading, fmt.Errorf("load: %w", err))
		return
	}
	char, err := charsheet.Build(props)
	if err != nil {
		log.Error("invalid character definition", "error", err)
		w.fail(job, StatusLoading, fmt.Errorf("build: %w", err))
		return
	}
	job.SetCharacter(char.Name)
	log = log.With("character", char.Name)

	// Phase 2: Resolve content references
	job.SetStatus(StatusResolving, "resolving")
	sheet, err := render.Resolve(char, w.registry)
	if err != nil {
		log.Error("content resolution failed", "error", err)
		w.fail(job, StatusResolving, err)
		return
	}
	log.Debug("content resolved",
		"spells", len(sheet.Spells),
		"features", len(sheet.Features),
		"items", len(sheet.MagicItems),
	)

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	outPath, err := w.renderDocument(ctx, job.Filename, sheet)
	if err != nil {
		// A missing engine still leaves usable .tex output behind.
		if errors.Is(err, render.ErrLaTeXNotFound) && outPath != "" {
			log.Warn("pdflatex not available, keeping tex source", "path", outPath)
			job.AddError(err.Error())
			job.SetOutputPath(outPath)
			job.SetStatus(StatusCompleted, "done")
			return
		}
		log.Error("render failed", "error", err)
		w.fail(job, StatusRendering, err)
		return
	}

	job.SetOutputPath(outPath)
	job.SetStatus(StatusCompleted, "done")
	log.Info("sheet built", "output", outPath)
}

// renderDocument emits the document in the configured format and returns
// its path. Output names follow the input file stem. When pdflatex is
// missing the .tex path is returned alongside ErrLaTeXNotFound so the
// caller can decide to keep it.
func (w *Worker) renderDocument(ctx context.Context, filename string, sheet *render.Sheet) (string, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = content.Slugify(sheet.Character.Name)
	}
	if base == "" {
		base = "character"
	}
	opts := render.Options{SpellsByLevel: w.opts.SpellsByLevel}

	switch w.opts.Format {
	case render.FormatHTML:
		doc, err := render.HTMLDocument(sheet, opts)
		if err != nil {
			return "", err
		}
		outPath := filepath.Join(w.opts.OutputDir, base+".html")
		return outPath, os.WriteFile(outPath, []byte(doc), 0o644)

	case render.FormatTeX:
		doc, err := render.LaTeXDocument(sheet, opts)
		if err != nil {
			return "", err
		}
		outPath := filepath.Join(w.opts.OutputDir, base+".tex")
		return outPath, os.WriteFile(outPath, []byte(doc), 0o644)

	case render.FormatPDF:
		doc, err := render.LaTeXDocument(sheet, opts)
		if err != nil {
			return "", err
		}
		outPath := filepath.Join(w.opts.OutputDir, base+".pdf")
		engine := &render.LaTeX{Command: w.opts.LatexCommand, KeepTemp: w.opts.KeepTemp}
		start := time.Now()
		err = engine.Render(ctx, doc, outPath)
		if err != nil {
			if errors.Is(err, render.ErrLaTeXNotFound) {
				texPath := filepath.Join(w.opts.OutputDir, base+".tex")
				if werr := os.WriteFile(texPath, []byte(doc), 0o644); werr != nil {
					return "", fmt.Errorf("write tex fallback: %w", werr)
				}
				return texPath, err
			}
			return "", err
		}
		if w.stats != nil {
			w.stats.Record(time.Since(start).Milliseconds())
		}
		return outPath, nil

	default:
		return "", fmt.Errorf("unknown output format: %q", w.opts.Format)
	}
}

func (w *Worker) fail(job *Job, status JobStatus, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, string(status))
}
