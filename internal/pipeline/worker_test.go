package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgriffen/mksheets/internal/config"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/render"
)

const validScript = `
local c = Character.new("Mordecai")
c:race("High Elf")
c:class("Wizard", 5, {subclass = "School of Evocation"})
c:abilities{strength = 8, dexterity = 14, constitution = 13,
            intelligence = 17, wisdom = 12, charisma = 10}
c:spells{"Fire Bolt", "Mage Armor", "Magic Missile", "Fireball"}
c:magic_items{"Wand of Magic Missiles"}
c:features{"Darkvision", "Arcane Recovery"}
return c
`

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	r, err := content.LoadBuiltin()
	if err != nil {
		t.Fatalf("load builtin content: %v", err)
	}
	return r
}

func testWorker(t *testing.T, dir string) *Worker {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWorker(testRegistry(t), log, Options{
		OutputDir: dir,
		Format:    render.FormatTeX,
	}, nil)
}

func TestWorker_ValidFile(t *testing.T) {
	dir := t.TempDir()
	w := testWorker(t, dir)

	job := NewJob("mordecai.lua", []byte(validScript))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors: %v)", snap.Status, snap.Errors)
	}
	if snap.Character != "Mordecai" {
		t.Errorf("expected character name recorded, got %q", snap.Character)
	}
	want := filepath.Join(dir, "mordecai.tex")
	if snap.OutputPath != want {
		t.Errorf("expected output at %s, got %s", want, snap.OutputPath)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "\\title{Mordecai}") {
		t.Error("output does not look like a rendered sheet")
	}
}

func TestWorker_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	w := testWorker(t, dir)

	job := NewJob("broken.lua", []byte("local c = Character.new("))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", snap.Status)
	}
	if len(snap.Errors) == 0 {
		t.Error("expected failure to be recorded on the job")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no output for a failed job, found %d files", len(entries))
	}
}

func TestWorker_UnresolvedReference(t *testing.T) {
	script := strings.Replace(validScript, `"Fireball"`, `"Wish"`, 1)
	w := testWorker(t, t.TempDir())

	job := NewJob("mordecai.lua", []byte(script))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", snap.Status)
	}
	found := false
	for _, e := range snap.Errors {
		if strings.Contains(e, "Wish") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error naming the unresolved spell, got %v", snap.Errors)
	}
}

func TestWorker_UnsupportedExtension(t *testing.T) {
	w := testWorker(t, t.TempDir())
	job := NewJob("character.yaml", []byte("name: nope"))
	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Fatal("expected failure for unsupported extension")
	}
}

func TestWorker_HTMLFormat(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w := NewWorker(testRegistry(t), log, Options{
		OutputDir:     dir,
		Format:        render.FormatHTML,
		SpellsByLevel: true,
	}, nil)

	job := NewJob("mordecai.lua", []byte(validScript))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors: %v)", snap.Status, snap.Errors)
	}
	data, err := os.ReadFile(filepath.Join(dir, "mordecai.html"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "<title>Mordecai</title>") {
		t.Error("html output missing title")
	}
}

// One bad file must not keep the rest of a batch from rendering.
func TestOrchestrator_BatchIsolation(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 10, JobTTL: time.Hour}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	o := NewOrchestrator(cfg, testRegistry(t), Options{
		OutputDir: dir,
		Format:    render.FormatTeX,
	}, nil, log)
	o.Start(context.Background())

	good := NewJob("mordecai.lua", []byte(validScript))
	bad := NewJob("broken.lua", []byte("return 42"))
	other := NewJob("grunt.json", []byte(`{"name": "Grunt", "classes": [{"name": "Fighter", "level": 1}]}`))

	for _, j := range []*Job{good, bad, other} {
		if err := o.Submit(j); err != nil {
			t.Fatalf("submit %s: %v", j.Filename, err)
		}
	}
	o.Drain()

	if got := good.Snapshot().Status; got != StatusCompleted {
		t.Errorf("good job: expected completed, got %s", got)
	}
	if got := bad.Snapshot().Status; got != StatusFailed {
		t.Errorf("bad job: expected failed, got %s", got)
	}
	if got := other.Snapshot().Status; got != StatusCompleted {
		t.Errorf("job after failure: expected completed, got %s (errors: %v)", got, other.Snapshot().Errors)
	}

	snaps := o.Jobs()
	if len(snaps) != 3 {
		t.Errorf("expected 3 tracked jobs, got %d", len(snaps))
	}
}

// Drain must return once queued jobs finish; the job-store cleanup loop
// runs until cancel and must not hold the drain open.
func TestOrchestrator_DrainTerminates(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	o := NewOrchestrator(cfg, testRegistry(t), Options{
		OutputDir: t.TempDir(),
		Format:    render.FormatTeX,
	}, nil, log)
	o.Start(context.Background())

	job := NewJob("mordecai.lua", []byte(validScript))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := make(chan struct{})
	go func() {
		o.Drain()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Drain did not return after the queue emptied")
	}
	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected completed after drain, got %s", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	o := NewOrchestrator(cfg, testRegistry(t), Options{Format: render.FormatTeX}, nil, log)
	// Workers never started, so the queue fills.

	if err := o.Submit(NewJob("a.lua", nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	overflow := NewJob("b.lua", nil)
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue full error")
	}
	if overflow.Snapshot().Status != StatusFailed {
		t.Error("overflow job should be marked failed")
	}
}
