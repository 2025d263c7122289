package charsheet

import (
	"fmt"
	"strings"
)

// Build normalizes the raw property set produced by a loader into a
// Character record. It validates structure only; content references are
// resolved later against the registry.
func Build(props map[string]any) (*Character, error) {
	c := &Character{
		Abilities: AbilityScores{
			Strength:     10,
			Dexterity:    10,
			Constitution: 10,
			Intelligence: 10,
			Wisdom:       10,
			Charisma:     10,
		},
	}

	c.Name = strings.TrimSpace(stringProp(props, "name"))
	if c.Name == "" {
		return nil, fmt.Errorf("character has no name")
	}
	c.Race = stringProp(props, "race")
	c.Background = stringProp(props, "background")
	c.Alignment = stringProp(props, "alignment")
	c.Appearance = stringProp(props, "appearance")
	c.Backstory = stringProp(props, "backstory")

	classes, err := classLevels(props["classes"])
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("character %s has no class levels", c.Name)
	}
	c.Classes = classes
	if c.Level() > 20 {
		return nil, fmt.Errorf("character %s exceeds level 20 (total %d)", c.Name, c.Level())
	}

	if raw, ok := props["abilities"]; ok {
		if err := applyAbilities(&c.Abilities, raw); err != nil {
			return nil, fmt.Errorf("character %s: %w", c.Name, err)
		}
	}

	c.SkillProficiencies = stringList(props["skills"])
	c.SaveProficiencies = stringList(props["saves"])
	c.Languages = stringList(props["languages"])
	c.Spells = stringList(props["spells"])
	c.Equipment = stringList(props["equipment"])
	c.MagicItems = stringList(props["magic_items"])
	c.Features = stringList(props["features"])

	if raw, ok := props["personality"].(map[string]any); ok {
		c.Personality = Personality{
			Traits: stringProp(raw, "traits"),
			Ideals: stringProp(raw, "ideals"),
			Bonds:  stringProp(raw, "bonds"),
			Flaws:  stringProp(raw, "flaws"),
		}
	}

	return c, nil
}

func classLevels(raw any) ([]ClassLevel, error) {
	list, ok := raw.([]any)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("classes must be a list, got %T", raw)
	}
	var out []ClassLevel
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("class entry %d must be a table, got %T", i, entry)
		}
		cl := ClassLevel{
			Class:    strings.TrimSpace(stringProp(m, "name")),
			Subclass: stringProp(m, "subclass"),
		}
		if cl.Class == "" {
			return nil, fmt.Errorf("class entry %d has no name", i)
		}
		level, ok := intProp(m, "level")
		if !ok {
			return nil, fmt.Errorf("class %s has no level", cl.Class)
		}
		if level < 1 || level > 20 {
			return nil, fmt.Errorf("class %s has invalid level %d", cl.Class, level)
		}
		cl.Level = level
		out = append(out, cl)
	}
	return out, nil
}

func applyAbilities(scores *AbilityScores, raw any) error {
	m, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("abilities must be a table, got %T", raw)
	}
	fields := map[string]*int{
		"strength":     &scores.Strength,
		"dexterity":    &scores.Dexterity,
		"constitution": &scores.Constitution,
		"intelligence": &scores.Intelligence,
		"wisdom":       &scores.Wisdom,
		"charisma":     &scores.Charisma,
	}
	for key, value := range m {
		target, ok := fields[strings.ToLower(key)]
		if !ok {
			return fmt.Errorf("unknown ability %q", key)
		}
		score, ok := toInt(value)
		if !ok {
			return fmt.Errorf("ability %s must be a number, got %T", key, value)
		}
		if score < 1 || score > 30 {
			return fmt.Errorf("ability %s out of range: %d", key, score)
		}
		*target = score
	}
	return nil
}

func stringProp(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intProp(m map[string]any, key string) (int, bool) {
	return toInt(m[key])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func stringList(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
