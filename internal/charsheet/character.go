// Package charsheet defines the normalized character record built from a
// definition file. Records are populated once per input file and never
// mutated afterwards.
package charsheet

import "strings"

// AbilityScores holds the six ability scores.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ClassLevel is one entry in a (possibly multiclassed) character's class list.
type ClassLevel struct {
	Class    string `json:"class"`
	Subclass string `json:"subclass,omitempty"`
	Level    int    `json:"level"`
}

// Personality carries the four free-text personality fields.
type Personality struct {
	Traits string `json:"traits,omitempty"`
	Ideals string `json:"ideals,omitempty"`
	Bonds  string `json:"bonds,omitempty"`
	Flaws  string `json:"flaws,omitempty"`
}

// Character is the normalized record a sheet is rendered from.
type Character struct {
	Name       string        `json:"name"`
	Race       string        `json:"race,omitempty"`
	Background string        `json:"background,omitempty"`
	Alignment  string        `json:"alignment,omitempty"`
	Classes    []ClassLevel  `json:"classes"`
	Abilities  AbilityScores `json:"abilities"`

	SkillProficiencies []string `json:"skills,omitempty"`
	SaveProficiencies  []string `json:"saves,omitempty"`
	Languages          []string `json:"languages,omitempty"`

	Spells     []string `json:"spells,omitempty"`
	Equipment  []string `json:"equipment,omitempty"`
	MagicItems []string `json:"magic_items,omitempty"`
	Features   []string `json:"features,omitempty"`

	Personality Personality `json:"personality,omitempty"`
	Appearance  string      `json:"appearance,omitempty"`
	Backstory   string      `json:"backstory,omitempty"` // markdown
}

// Level is the character's total level across all classes.
func (c *Character) Level() int {
	total := 0
	for _, cl := range c.Classes {
		total += cl.Level
	}
	return total
}

// ProficiencyBonus derives the proficiency bonus from total level.
func (c *Character) ProficiencyBonus() int {
	level := c.Level()
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}

// Modifier converts an ability score to its modifier, rounding down.
func Modifier(score int) int {
	m := score - 10
	if m >= 0 {
		return m / 2
	}
	return (m - 1) / 2
}

// IsSpellcaster reports whether the character knows any spells.
func (c *Character) IsSpellcaster() bool {
	return len(c.Spells) > 0
}

// castingAbility maps class names to their spellcasting ability.
var castingAbility = map[string]string{
	"bard":     "Charisma",
	"cleric":   "Wisdom",
	"druid":    "Wisdom",
	"paladin":  "Charisma",
	"ranger":   "Wisdom",
	"sorcerer": "Charisma",
	"warlock":  "Charisma",
	"wizard":   "Intelligence",
}

// SpellcastingAbility returns the casting ability name and score for the
// character's first spellcasting class. The second return is false for
// characters with no casting class.
func (c *Character) SpellcastingAbility() (name string, score int, ok bool) {
	for _, cl := range c.Classes {
		ability, found := castingAbility[strings.ToLower(cl.Class)]
		if !found {
			continue
		}
		switch ability {
		case "Intelligence":
			return ability, c.Abilities.Intelligence, true
		case "Wisdom":
			return ability, c.Abilities.Wisdom, true
		case "Charisma":
			return ability, c.Abilities.Charisma, true
		}
	}
	return "", 0, false
}

// SpellSaveDC derives the spell save DC from the first casting class.
func (c *Character) SpellSaveDC() (int, bool) {
	_, score, ok := c.SpellcastingAbility()
	if !ok {
		return 0, false
	}
	return 8 + c.ProficiencyBonus() + Modifier(score), true
}
