package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrLaTeXNotFound is returned when the typesetting engine is not on PATH.
// The caller is expected to fall back to emitting the .tex source.
var ErrLaTeXNotFound = errors.New("pdflatex not found on PATH")

// LaTeX runs the external typesetting engine.
type LaTeX struct {
	// Command is the engine binary, pdflatex by default.
	Command string
	// KeepTemp preserves the scratch directory for debugging.
	KeepTemp bool
}

// Render typesets texSource and writes the final PDF to outPath. The engine
// runs twice so hyperref cross references settle. The produced PDF is opened
// and checked before Render reports success.
func (l *LaTeX) Render(ctx context.Context, texSource, outPath string) error {
	command := l.Command
	if command == "" {
		command = "pdflatex"
	}
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf("%w: %s", ErrLaTeXNotFound, command)
	}

	workDir, err := os.MkdirTemp("", "mksheets-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	if !l.KeepTemp {
		defer os.RemoveAll(workDir)
	}

	texPath := filepath.Join(workDir, "sheet.tex")
	if err := os.WriteFile(texPath, []byte(texSource), 0o644); err != nil {
		return fmt.Errorf("write tex source: %w", err)
	}

	// Two passes so \label/\hyperref references resolve.
	for pass := 1; pass <= 2; pass++ {
		cmd := exec.CommandContext(ctx, command, "-interaction=nonstopmode", "-halt-on-error", "sheet.tex")
		cmd.Dir = workDir
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s pass %d: %w\n%s", command, pass, err, logTail(out))
		}
	}

	pdfPath := filepath.Join(workDir, "sheet.pdf")
	pages, err := verifyPDF(pdfPath)
	if err != nil {
		return fmt.Errorf("verify rendered pdf: %w", err)
	}
	if pages == 0 {
		return fmt.Errorf("rendered pdf has no pages")
	}

	if err := copyFile(pdfPath, outPath); err != nil {
		return fmt.Errorf("write output pdf: %w", err)
	}
	return nil
}

// verifyPDF opens the produced document and returns its page count.
func verifyPDF(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// copyFile writes src to dst. Rename is not used because the scratch dir
// may be on a different filesystem.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// logTail returns the last few lines of engine output for error reporting.
func logTail(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > 15 {
		lines = lines[len(lines)-15:]
	}
	return strings.Join(lines, "\n")
}
