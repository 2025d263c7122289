// Package loader reads character definition files and produces the raw
// property set the model builder normalizes.
package loader

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Loader converts one character definition file into raw properties.
type Loader interface {
	Load(r io.Reader, filename string) (map[string]any, error)
}

// SupportedExtensions lists the definition formats this tool can read.
var SupportedExtensions = map[string]bool{
	".lua":  true,
	".json": true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".lua":
		return &LuaLoader{}, nil
	case ".json":
		return &JSONLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// CollectFiles expands the given paths into the list of character files to
// build. Directories are scanned one level deep; unsupported files are
// logged and skipped.
func CollectFiles(paths []string, log *slog.Logger) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			if IsSupportedExtension(path) {
				files = append(files, path)
			} else {
				log.Debug("skipping unsupported file", "path", path)
			}
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := filepath.Join(path, entry.Name())
			if IsSupportedExtension(name) {
				files = append(files, name)
			} else {
				log.Debug("skipping unsupported file", "path", name)
			}
		}
	}
	return files, nil
}
