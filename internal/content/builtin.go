package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
)

//go:embed data/*.json
var builtinFS embed.FS

// LoadBuiltin returns a registry populated with the SRD content compiled
// into the binary.
func LoadBuiltin() (*Registry, error) {
	r := NewRegistry()
	entries, err := fs.Glob(builtinFS, "data/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob builtin content: %w", err)
	}
	for _, name := range entries {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read builtin content %s: %w", name, err)
		}
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, fmt.Errorf("decode builtin content %s: %w", name, err)
		}
		for _, b := range blocks {
			if err := r.Put(b); err != nil {
				return nil, fmt.Errorf("register %s from %s: %w", b.Name, name, err)
			}
		}
	}
	return r, nil
}
