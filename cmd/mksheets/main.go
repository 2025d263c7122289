// Command mksheets builds typeset character sheets from character files.
//
// Each argument is a character file or a directory of character files.
// With no arguments the current directory is scanned.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgriffen/mksheets/internal/config"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/loader"
	"github.com/dgriffen/mksheets/internal/pipeline"
	"github.com/dgriffen/mksheets/internal/render"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		spellsByLevel bool
		debug         bool
		keepTemp      bool
		outputDir     string
		format        string
		pack          string
		latexCmd      string
		workers       int
	)

	flag.BoolVar(&spellsByLevel, "S", false, "order spells by level, then name")
	flag.BoolVar(&spellsByLevel, "spells-by-level", false, "order spells by level, then name")
	flag.BoolVar(&debug, "d", false, "verbose logging, single worker")
	flag.BoolVar(&debug, "debug", false, "verbose logging, single worker")
	flag.BoolVar(&keepTemp, "keep-temp", false, "keep the typesetting work directory")
	flag.StringVar(&outputDir, "output", ".", "directory for rendered documents")
	flag.StringVar(&format, "format", "pdf", "output format: pdf, tex, or html")
	flag.StringVar(&pack, "content", "", "content pack to layer over the built-in compendium")
	flag.StringVar(&latexCmd, "latex-cmd", "pdflatex", "typesetting engine command")
	flag.IntVar(&workers, "workers", 4, "number of concurrent builds")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
		workers = 1
		keepTemp = true
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	outFormat, err := render.ParseFormat(format)
	if err != nil {
		log.Error("invalid format", "error", err)
		return 2
	}
	if workers < 1 {
		workers = 1
	}

	registry, err := content.LoadBuiltin()
	if err != nil {
		log.Error("failed to load built-in content", "error", err)
		return 1
	}
	if pack != "" {
		if err := registry.LoadPack(pack); err != nil {
			log.Error("failed to load content pack", "path", pack, "error", err)
			return 1
		}
		log.Debug("content pack loaded", "path", pack)
	}

	files, err := loader.CollectFiles(flag.Args(), log)
	if err != nil {
		log.Error("failed to collect character files", "error", err)
		return 1
	}
	if len(files) == 0 {
		log.Error("no character files found")
		return 1
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Error("failed to create output directory", "path", outputDir, "error", err)
		return 1
	}

	cfg := config.Config{
		WorkerCount:  workers,
		MaxQueueSize: len(files),
		JobTTL:       time.Hour,
	}
	orch := pipeline.NewOrchestrator(cfg, registry, pipeline.Options{
		OutputDir:     outputDir,
		Format:        outFormat,
		SpellsByLevel: spellsByLevel,
		KeepTemp:      keepTemp,
		LatexCommand:  latexCmd,
	}, nil, log)
	orch.Start(context.Background())

	jobs := make([]*pipeline.Job, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Error("failed to read file", "file", file, "error", err)
			continue
		}
		job := pipeline.NewJob(file, data)
		if err := orch.Submit(job); err != nil {
			log.Error("failed to queue file", "file", file, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	orch.Drain()

	failed := 0
	for _, job := range jobs {
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusCompleted {
			fmt.Printf("%s: %s\n", snap.Filename, snap.OutputPath)
			continue
		}
		failed++
		for _, e := range snap.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", snap.Filename, e)
		}
	}
	if failed > 0 || len(jobs) < len(files) {
		fmt.Fprintf(os.Stderr, "%d of %d sheets failed\n", failed+len(files)-len(jobs), len(files))
		return 1
	}
	return 0
}
