package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgriffen/mksheets/internal/charsheet"
	"github.com/dgriffen/mksheets/internal/content"
)

func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	r, err := content.LoadBuiltin()
	if err != nil {
		t.Fatalf("load builtin content: %v", err)
	}
	return r
}

func wizard() *charsheet.Character {
	return &charsheet.Character{
		Name:      "Mordecai",
		Race:      "High Elf",
		Alignment: "Neutral Good",
		Classes:   []charsheet.ClassLevel{{Class: "Wizard", Subclass: "School of Evocation", Level: 5}},
		Abilities: charsheet.AbilityScores{
			Strength: 8, Dexterity: 14, Constitution: 13,
			Intelligence: 17, Wisdom: 12, Charisma: 10,
		},
		Spells:     []string{"Fireball", "Fire Bolt", "Magic Missile", "Shield"},
		Features:   []string{"Darkvision", "Arcane Recovery"},
		MagicItems: []string{"Wand of Magic Missiles"},
	}
}

func TestResolve(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Spells) != 4 {
		t.Errorf("expected 4 resolved spells, got %d", len(s.Spells))
	}
	if len(s.Features) != 2 {
		t.Errorf("expected 2 resolved features, got %d", len(s.Features))
	}
	if len(s.Classes) != 1 {
		t.Errorf("expected 1 resolved class, got %d", len(s.Classes))
	}
}

func TestResolve_UnresolvedSpell(t *testing.T) {
	c := wizard()
	c.Spells = append(c.Spells, "Wish")
	_, err := Resolve(c, testRegistry(t))
	if err == nil {
		t.Fatal("expected error for unresolved spell")
	}
	if !strings.Contains(err.Error(), `spell "Wish"`) {
		t.Errorf("error should name the unresolved spell: %v", err)
	}
}

func TestResolve_UnresolvedClass(t *testing.T) {
	c := wizard()
	c.Classes = []charsheet.ClassLevel{{Class: "Gunslinger", Level: 5}}
	_, err := Resolve(c, testRegistry(t))
	if err == nil {
		t.Fatal("expected error for unknown class")
	}
	if !strings.Contains(err.Error(), "Gunslinger") {
		t.Errorf("error should name the class: %v", err)
	}
}

func TestResolve_ReportsAllUnresolved(t *testing.T) {
	c := wizard()
	c.Spells = append(c.Spells, "Wish")
	c.Features = append(c.Features, "Totally Made Up")
	_, err := Resolve(c, testRegistry(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Wish") || !strings.Contains(err.Error(), "Totally Made Up") {
		t.Errorf("error should list every unresolved reference: %v", err)
	}
}

func TestSortedSpells_Alphabetical(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	spells := s.SortedSpells(false)
	want := []string{"Fire Bolt", "Fireball", "Magic Missile", "Shield"}
	for i, name := range want {
		if spells[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, spells[i].Name)
		}
	}
}

func TestSortedSpells_ByLevel(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	spells := s.SortedSpells(true)
	// Fire Bolt (0), Magic Missile (1), Shield (1), Fireball (3)
	want := []string{"Fire Bolt", "Magic Missile", "Shield", "Fireball"}
	for i, name := range want {
		if spells[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, spells[i].Name)
		}
	}
}

func TestSortedSpells_Deterministic(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	first := s.SortedSpells(true)
	second := s.SortedSpells(true)
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Fatalf("ordering not deterministic at %d: %s vs %s", i, first[i].Name, second[i].Name)
		}
	}
}

func TestLaTeXDocument(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := LaTeXDocument(s, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"\\documentclass",
		"\\title{Mordecai}",
		"\\section*{Summary}",
		"\\section*{Features}",
		"\\section*{Magic Items}",
		"\\section*{Spellbook}",
		"\\label{srd:fireball}",
		"Spell save DC: 14",
		"\\end{document}",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestLaTeXDocument_LevelHeadings(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := LaTeXDocument(s, Options{SpellsByLevel: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc, "\\subsection*{Cantrips}") {
		t.Error("expected Cantrips heading in by-level ordering")
	}
	if !strings.Contains(doc, "\\subsection*{3rd Level}") {
		t.Error("expected 3rd Level heading in by-level ordering")
	}

	alpha, err := LaTeXDocument(s, Options{SpellsByLevel: false})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(alpha, "\\subsection*{Cantrips}") {
		t.Error("alphabetical ordering should not group by level")
	}
}

func TestLaTeXDocument_OmitsEmptySections(t *testing.T) {
	c := &charsheet.Character{
		Name:      "Grunt",
		Classes:   []charsheet.ClassLevel{{Class: "Fighter", Level: 1}},
		Abilities: charsheet.AbilityScores{Strength: 16, Dexterity: 12, Constitution: 14, Intelligence: 8, Wisdom: 10, Charisma: 10},
	}
	s, err := Resolve(c, testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := LaTeXDocument(s, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, absent := range []string{"Spellbook", "Magic Items", "\\section*{Features}", "Personality"} {
		if strings.Contains(doc, absent) {
			t.Errorf("document should omit empty section %q", absent)
		}
	}
}

func TestHTMLDocument(t *testing.T) {
	s, err := Resolve(wizard(), testRegistry(t))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := HTMLDocument(s, Options{SpellsByLevel: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"<title>Mordecai</title>",
		`<section id="srd-fireball">`,
		"<h3>Cantrips</h3>",
		"Spell save DC: 14",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	// Shield references Magic Missile; the link must point at the anchor.
	if !strings.Contains(doc, `href="#srd-magic-missile"`) {
		t.Error("expected cross-reference anchor for magic missile")
	}
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"pdf", "TeX", "html"} {
		if _, err := ParseFormat(ok); err != nil {
			t.Errorf("ParseFormat(%q) unexpected error: %v", ok, err)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLaTeX_MissingEngine(t *testing.T) {
	l := &LaTeX{Command: "definitely-not-a-latex-binary"}
	err := l.Render(context.Background(), "\\documentclass{article}", t.TempDir()+"/out.pdf")
	if !errors.Is(err, ErrLaTeXNotFound) {
		t.Errorf("expected ErrLaTeXNotFound, got %v", err)
	}
}
