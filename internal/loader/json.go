package loader

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLoader reads a structured character export. The document uses the
// same property names as the Lua builder methods:
//
//	{
//	  "name": "Thorin",
//	  "classes": [{"name": "Fighter", "level": 3}],
//	  "abilities": {"strength": 16, "constitution": 15},
//	  "features": ["Second Wind", "Action Surge"]
//	}
type JSONLoader struct{}

func (p *JSONLoader) Load(r io.Reader, filename string) (map[string]any, error) {
	dec := json.NewDecoder(r)
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("decode character file: %w", err)
	}
	// Trailing garbage after the document is a malformed file, not an export.
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing content in %s", filename)
	}
	return props, nil
}
