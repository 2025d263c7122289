package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/dgriffen/mksheets/internal/charsheet"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/markup"
)

const htmlStyle = `body { font-family: Georgia, serif; max-width: 50rem; margin: 2rem auto; padding: 0 1rem; }
h1 { border-bottom: 2px solid #333; }
h2 { border-bottom: 1px solid #999; }
table { border-collapse: collapse; }
td, th { padding: 0.2rem 0.8rem; text-align: left; }
.spell-tag { font-style: italic; color: #555; }
a.srd-ref { text-decoration: underline dotted; }`

// HTMLDocument assembles a standalone HTML character sheet with the same
// sections as the LaTeX document.
func HTMLDocument(s *Sheet, opts Options) (string, error) {
	c := s.Character
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(c.Name))
	fmt.Fprintf(&b, "<style>\n%s\n</style>\n</head>\n<body>\n", htmlStyle)
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(c.Name))

	writeHTMLSummary(&b, s)

	if err := writeHTMLBlocks(&b, "Features", s.Features); err != nil {
		return "", err
	}
	if err := writeHTMLBlocks(&b, "Magic Items", s.MagicItems); err != nil {
		return "", err
	}
	if err := writeHTMLSpellbook(&b, s, opts); err != nil {
		return "", err
	}
	if err := writeHTMLPersona(&b, c); err != nil {
		return "", err
	}

	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func writeHTMLSummary(b *strings.Builder, s *Sheet) {
	c := s.Character
	b.WriteString("<h2>Summary</h2>\n")

	var classes []string
	for _, cl := range c.Classes {
		entry := fmt.Sprintf("%s %d", cl.Class, cl.Level)
		if cl.Subclass != "" {
			entry = fmt.Sprintf("%s (%s) %d", cl.Class, cl.Subclass, cl.Level)
		}
		classes = append(classes, entry)
	}
	summary := strings.Join(classes, " / ")
	if c.Race != "" {
		summary += " — " + c.Race
	}
	if c.Alignment != "" {
		summary += ", " + c.Alignment
	}
	if c.Background != "" {
		summary += ", " + c.Background
	}
	fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(summary))

	ab := c.Abilities
	b.WriteString("<table>\n<tr><th>Ability</th><th>Score</th><th>Modifier</th></tr>\n")
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
		fmt.Fprintf(b, "<tr><td>%s</td><td>%d</td><td>%+d</td></tr>\n",
			row.name, row.score, charsheet.Modifier(row.score))
	}
	b.WriteString("</table>\n")

	fmt.Fprintf(b, "<p>Proficiency bonus: %+d</p>\n", c.ProficiencyBonus())
	if dc, ok := c.SpellSaveDC(); ok {
		ability, _, _ := c.SpellcastingAbility()
		fmt.Fprintf(b, "<p>Spell save DC: %d (%s)</p>\n", dc, html.EscapeString(ability))
	}
	for _, field := range []struct {
		label string
		items []string
	}{
		{"Saving throws", c.SaveProficiencies},
		{"Skills", c.SkillProficiencies},
		{"Languages", c.Languages},
		{"Equipment", c.Equipment},
	} {
		if len(field.items) == 0 {
			continue
		}
		fmt.Fprintf(b, "<p>%s: %s</p>\n", field.label, html.EscapeString(strings.Join(field.items, ", ")))
	}
}

func writeHTMLBlocks(b *strings.Builder, title string, blocks []*content.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	fmt.Fprintf(b, "<h2>%s</h2>\n", title)
	for _, block := range blocks {
		body, err := markup.ToHTML(block.Text)
		if err != nil {
			return fmt.Errorf("format %s %q: %w", block.Kind, block.Name, err)
		}
		fmt.Fprintf(b, "<section id=%q>\n<h3>%s</h3>\n%s</section>\n",
			markup.AnchorID(block.ID), html.EscapeString(block.Name), body)
	}
	return nil
}

func writeHTMLSpellbook(b *strings.Builder, s *Sheet, opts Options) error {
	spells := s.SortedSpells(opts.SpellsByLevel)
	if len(spells) == 0 {
		return nil
	}
	b.WriteString("<h2>Spellbook</h2>\n")

	lastLevel := -1
	for _, spell := range spells {
		if opts.SpellsByLevel && spell.Level != lastLevel {
			fmt.Fprintf(b, "<h3>%s</h3>\n", levelHeading(spell.Level))
			lastLevel = spell.Level
		}
		body, err := markup.ToHTML(spell.Text)
		if err != nil {
			return fmt.Errorf("format spell %q: %w", spell.Name, err)
		}
		tag := ""
		if spell.School != "" {
			tag = fmt.Sprintf(" <span class=\"spell-tag\">%s</span>", html.EscapeString(spellTag(spell)))
		}
		fmt.Fprintf(b, "<section id=%q>\n<h4>%s%s</h4>\n%s</section>\n",
			markup.AnchorID(spell.ID), html.EscapeString(spell.Name), tag, body)
	}
	return nil
}

func writeHTMLPersona(b *strings.Builder, c *charsheet.Character) error {
	p := c.Personality
	hasPersona := p.Traits != "" || p.Ideals != "" || p.Bonds != "" || p.Flaws != ""
	if !hasPersona && c.Appearance == "" && c.Backstory == "" {
		return nil
	}
	b.WriteString("<h2>Personality</h2>\n")
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
		fmt.Fprintf(b, "<p><strong>%s.</strong> %s</p>\n", field.label, html.EscapeString(field.text))
	}
	if c.Backstory != "" {
		body, err := markup.ToHTML(c.Backstory)
		if err != nil {
			return fmt.Errorf("format backstory: %w", err)
		}
		fmt.Fprintf(b, "<h3>Backstory</h3>\n%s\n", body)
	}
	return nil
}
