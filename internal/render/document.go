// Package render resolves a character record against the content registry
// and emits one typeset document per character.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgriffen/mksheets/internal/charsheet"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/markup"
)

// Format selects the output document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatTeX  Format = "tex"
	FormatHTML Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatTeX:
		return FormatTeX, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", s)
	}
}

// Options controls document assembly.
type Options struct {
	// SpellsByLevel orders the spellbook by spell level (then name) instead
	// of alphabetically.
	SpellsByLevel bool
}

// Sheet is a character record with every content reference resolved.
type Sheet struct {
	Character  *charsheet.Character
	Classes    []*content.Block
	Features   []*content.Block
	MagicItems []*content.Block
	Spells     []*content.Block
}

// ordinals spells out spell levels in section headings.
var ordinals = map[int]string{
	1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 5: "5th",
	6: "6th", 7: "7th", 8: "8th", 9: "9th",
}

// Resolve looks up every spell, feature, magic item, and class the character
// names, plus every srd: cross reference inside the resolved text. Any
// unresolved reference is a hard error for this character.
func Resolve(c *charsheet.Character, reg *content.Registry) (*Sheet, error) {
	s := &Sheet{Character: c}
	var unresolved []string

	lookup := func(kind content.Kind, names []string, dst *[]*content.Block) {
		for _, name := range names {
			b, ok := reg.Lookup(kind, name)
			if !ok {
				unresolved = append(unresolved, fmt.Sprintf("%s %q", kind, name))
				continue
			}
			*dst = append(*dst, b)
		}
	}

	classNames := make([]string, 0, len(c.Classes))
	for _, cl := range c.Classes {
		classNames = append(classNames, cl.Class)
	}
	lookup(content.KindClass, classNames, &s.Classes)
	lookup(content.KindFeature, c.Features, &s.Features)
	lookup(content.KindItem, c.MagicItems, &s.MagicItems)
	lookup(content.KindSpell, c.Spells, &s.Spells)

	// Cross references inside resolved descriptions must resolve too.
	blocks := make([]*content.Block, 0, len(s.Classes)+len(s.Features)+len(s.MagicItems)+len(s.Spells))
	blocks = append(blocks, s.Classes...)
	blocks = append(blocks, s.Features...)
	blocks = append(blocks, s.MagicItems...)
	blocks = append(blocks, s.Spells...)
	for _, b := range blocks {
		for _, ref := range markup.Refs(b.Text) {
			if !reg.Exists(ref) {
				unresolved = append(unresolved, fmt.Sprintf("reference %q in %s %q", ref, b.Kind, b.Name))
			}
		}
	}

	if len(unresolved) > 0 {
		return nil, fmt.Errorf("character %s has unresolved content: %s",
			c.Name, strings.Join(unresolved, ", "))
	}
	return s, nil
}

// SortedSpells returns the spellbook in rendering order: alphabetical by
// default, by level then name when byLevel is set. The input order never
// matters; both orderings are deterministic.
func (s *Sheet) SortedSpells(byLevel bool) []*content.Block {
	out := make([]*content.Block, len(s.Spells))
	copy(out, s.Spells)
	sort.Slice(out, func(i, j int) bool {
		if byLevel && out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out
}

const latexPreamble = `\documentclass[10pt]{article}
\usepackage[margin=1in]{geometry}
\usepackage[hidelinks]{hyperref}
\usepackage{booktabs}
\setlength{\parindent}{0pt}
\setlength{\parskip}{0.5em}
`

// LaTeXDocument assembles the complete LaTeX source for a character sheet.
// Sections with no content are omitted.
func LaTeXDocument(s *Sheet, opts Options) (string, error) {
	c := s.Character
	var b strings.Builder

	b.WriteString(latexPreamble)
	fmt.Fprintf(&b, "\\title{%s}\n", markup.EscapeLaTeX(c.Name))
	b.WriteString("\\date{}\n\\begin{document}\n\\maketitle\n\n")

	writeLaTeXSummary(&b, s)

	if err := writeLaTeXBlocks(&b, "Features", s.Features); err != nil {
		return "", err
	}
	if err := writeLaTeXBlocks(&b, "Magic Items", s.MagicItems); err != nil {
		return "", err
	}
	if err := writeLaTeXSpellbook(&b, s, opts); err != nil {
		return "", err
	}
	if err := writeLaTeXPersona(&b, c); err != nil {
		return "", err
	}

	b.WriteString("\\end{document}\n")
	return b.String(), nil
}

func writeLaTeXSummary(b *strings.Builder, s *Sheet) {
	c := s.Character
	b.WriteString("\\section*{Summary}\n")

	var classes []string
	for _, cl := range c.Classes {
		entry := fmt.Sprintf("%s %d", cl.Class, cl.Level)
		if cl.Subclass != "" {
			entry = fmt.Sprintf("%s (%s) %d", cl.Class, cl.Subclass, cl.Level)
		}
		classes = append(classes, entry)
	}
	fmt.Fprintf(b, "%s", markup.EscapeLaTeX(strings.Join(classes, " / ")))
	if c.Race != "" {
		fmt.Fprintf(b, " --- %s", markup.EscapeLaTeX(c.Race))
	}
	if c.Alignment != "" {
		fmt.Fprintf(b, ", %s", markup.EscapeLaTeX(c.Alignment))
	}
	if c.Background != "" {
		fmt.Fprintf(b, ", %s", markup.EscapeLaTeX(c.Background))
	}
	b.WriteString("\n\n")

	ab := c.Abilities
	b.WriteString("\\begin{tabular}{lrr}\n\\toprule\nAbility & Score & Modifier \\\\\n\\midrule\n")
	for _, row := range []struct {
		name  string
		score int
	}{
		{"Strength", ab.Strength},
		{"Dexterity", ab.Dexterity},
		{"Constitution", ab.Constitution},
		{"Intelligence", ab.Intelligence},
		{"Wisdom", ab.Wisdom},
		{"Charisma", ab.Charisma},
	} {
		fmt.Fprintf(b, "%s & %d & %+d \\\\\n", row.name, row.score, charsheet.Modifier(row.score))
	}
	b.WriteString("\\bottomrule\n\\end{tabular}\n\n")

	fmt.Fprintf(b, "Proficiency bonus: %+d\n\n", c.ProficiencyBonus())
	if dc, ok := c.SpellSaveDC(); ok {
		ability, _, _ := c.SpellcastingAbility()
		fmt.Fprintf(b, "Spell save DC: %d (%s)\n\n", dc, ability)
	}
	if len(c.SaveProficiencies) > 0 {
		fmt.Fprintf(b, "Saving throws: %s\n\n", markup.EscapeLaTeX(strings.Join(c.SaveProficiencies, ", ")))
	}
	if len(c.SkillProficiencies) > 0 {
		fmt.Fprintf(b, "Skills: %s\n\n", markup.EscapeLaTeX(strings.Join(c.SkillProficiencies, ", ")))
	}
	if len(c.Languages) > 0 {
		fmt.Fprintf(b, "Languages: %s\n\n", markup.EscapeLaTeX(strings.Join(c.Languages, ", ")))
	}
	if len(c.Equipment) > 0 {
		fmt.Fprintf(b, "Equipment: %s\n\n", markup.EscapeLaTeX(strings.Join(c.Equipment, ", ")))
	}
}

func writeLaTeXBlocks(b *strings.Builder, title string, blocks []*content.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	fmt.Fprintf(b, "\\section*{%s}\n", title)
	for _, block := range blocks {
		body, err := markup.ToLaTeX(block.Text)
		if err != nil {
			return fmt.Errorf("format %s %q: %w", block.Kind, block.Name, err)
		}
		fmt.Fprintf(b, "\\subsection*{%s}\\label{%s%s}\n", markup.EscapeLaTeX(block.Name), markup.RefPrefix, block.ID)
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return nil
}

func writeLaTeXSpellbook(b *strings.Builder, s *Sheet, opts Options) error {
	spells := s.SortedSpells(opts.SpellsByLevel)
	if len(spells) == 0 {
		return nil
	}
	b.WriteString("\\section*{Spellbook}\n")

	lastLevel := -1
	for _, spell := range spells {
		if opts.SpellsByLevel && spell.Level != lastLevel {
			fmt.Fprintf(b, "\\subsection*{%s}\n", levelHeading(spell.Level))
			lastLevel = spell.Level
		}
		body, err := markup.ToLaTeX(spell.Text)
		if err != nil {
			return fmt.Errorf("format spell %q: %w", spell.Name, err)
		}
		heading := markup.EscapeLaTeX(spell.Name)
		if spell.School != "" {
			heading += fmt.Sprintf(" \\hfill \\textit{%s}", markup.EscapeLaTeX(spellTag(spell)))
		}
		fmt.Fprintf(b, "\\subsubsection*{%s}\\label{%s%s}\n", heading, markup.RefPrefix, spell.ID)
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return nil
}

func writeLaTeXPersona(b *strings.Builder, c *charsheet.Character) error {
	p := c.Personality
	hasPersona := p.Traits != "" || p.Ideals != "" || p.Bonds != "" || p.Flaws != ""
	if !hasPersona && c.Appearance == "" && c.Backstory == "" {
		return nil
	}
	b.WriteString("\\section*{Personality}\n")
	for _, field := range []struct {
		label, text string
	}{
		{"Traits", p.Traits},
		{"Ideals", p.Ideals},
		{"Bonds", p.Bonds},
		{"Flaws", p.Flaws},
		{"Appearance", c.Appearance},
	} {
		if field.text == "" {
			continue
		}
		fmt.Fprintf(b, "\\textbf{%s.} %s\n\n", field.label, markup.EscapeLaTeX(field.text))
	}
	if c.Backstory != "" {
		body, err := markup.ToLaTeX(c.Backstory)
		if err != nil {
			return fmt.Errorf("format backstory: %w", err)
		}
		b.WriteString("\\subsection*{Backstory}\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return nil
}

// levelHeading names a spell level section.
func levelHeading(level int) string {
	if level == 0 {
		return "Cantrips"
	}
	return ordinals[level] + " Level"
}

// spellTag is the school/level annotation next to a spell name.
func spellTag(spell *content.Block) string {
	if spell.Level == 0 {
		return spell.School + " cantrip"
	}
	return fmt.Sprintf("%s-level %s", ordinals[spell.Level], spell.School)
}
