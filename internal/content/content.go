// Package content holds the static SRD content registry: spells, class and
// racial features, magic items, and class descriptions that character sheets
// reference by name.
package content

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a content block.
type Kind string

const (
	KindSpell   Kind = "spell"
	KindFeature Kind = "feature"
	KindItem    Kind = "item"
	KindClass   Kind = "class"
)

var validKinds = map[Kind]bool{
	KindSpell:   true,
	KindFeature: true,
	KindItem:    true,
	KindClass:   true,
}

// Block is one named piece of rules text. Text is markdown and may
// cross-reference other blocks with srd: links, e.g. [Fireball](srd:fireball).
type Block struct {
	ID     string `json:"id,omitempty"` // slug; derived from Name when empty
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Level  int    `json:"level,omitempty"`  // spell level, 0 for cantrips
	School string `json:"school,omitempty"` // spells only
	Class  string `json:"class,omitempty"`  // owning class, if any
	Text   string `json:"text"`
}

// Registry is the lookup table character records are resolved against.
// Builtin content is loaded first; content packs layered on top win on
// ID collision.
type Registry struct {
	byKey  map[string]*Block // "spell/fireball"
	bySlug map[string][]*Block
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]*Block),
		bySlug: make(map[string][]*Block),
	}
}

// Put adds or replaces a block. The block's ID is derived from its name
// when not set explicitly.
func (r *Registry) Put(b Block) error {
	if !validKinds[b.Kind] {
		return fmt.Errorf("invalid content kind: %q", b.Kind)
	}
	if b.ID == "" {
		b.ID = Slugify(b.Name)
	}
	if b.ID == "" {
		return fmt.Errorf("content block %q has no usable id", b.Name)
	}
	key := string(b.Kind) + "/" + b.ID
	if old, ok := r.byKey[key]; ok {
		// Replace in the slug index as well.
		entries := r.bySlug[b.ID]
		for i, e := range entries {
			if e == old {
				r.bySlug[b.ID] = append(entries[:i], entries[i+1:]...)
				break
			}
		}
	}
	stored := b
	r.byKey[key] = &stored
	r.bySlug[b.ID] = append(r.bySlug[b.ID], &stored)
	return nil
}

// Lookup finds a block of the given kind by name or slug.
func (r *Registry) Lookup(kind Kind, name string) (*Block, bool) {
	b, ok := r.byKey[string(kind)+"/"+Slugify(name)]
	return b, ok
}

// Exists reports whether any block answers to the given slug, regardless
// of kind. Used to validate srd: cross references.
func (r *Registry) Exists(slug string) bool {
	return len(r.bySlug[Slugify(slug)]) > 0
}

// Len returns the number of registered blocks.
func (r *Registry) Len() int {
	return len(r.byKey)
}

// Blocks returns all blocks sorted by kind then ID, for deterministic
// iteration (pack export, listings).
func (r *Registry) Blocks() []Block {
	out := make([]Block, 0, len(r.byKey))
	for _, b := range r.byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify converts a block name to its cross-reference slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
