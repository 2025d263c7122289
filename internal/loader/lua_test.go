package loader

import (
	"strings"
	"testing"
)

const mordecaiScript = `
local c = Character.new("Mordecai")
c:race("High Elf")
c:background("Sage")
c:alignment("Neutral Good")
c:class("Wizard", 5, {subclass = "School of Evocation"})
c:abilities{strength = 8, dexterity = 14, constitution = 13,
            intelligence = 17, wisdom = 12, charisma = 10}
c:skills{"Arcana", "History", "Investigation"}
c:saves{"Intelligence", "Wisdom"}
c:spells{"Fire Bolt", "Mage Armor", "Magic Missile", "Fireball"}
c:equipment{"Spellbook", "Quarterstaff", "Component pouch"}
c:magic_items{"Wand of Magic Missiles"}
c:features{"Darkvision", "Fey Ancestry", "Arcane Recovery"}
c:personality{traits = "Forgets meals when reading.", flaws = "Overconfident."}
c:backstory("Apprenticed in the **Iron Tower**.")
return c
`

func TestLuaLoader_FullCharacter(t *testing.T) {
	p := &LuaLoader{}
	props, err := p.Load(strings.NewReader(mordecaiScript), "mordecai.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if props["name"] != "Mordecai" {
		t.Errorf("expected name Mordecai, got %v", props["name"])
	}
	if props["race"] != "High Elf" {
		t.Errorf("expected race High Elf, got %v", props["race"])
	}

	classes, ok := props["classes"].([]any)
	if !ok || len(classes) != 1 {
		t.Fatalf("expected 1 class entry, got %v", props["classes"])
	}
	class, ok := classes[0].(map[string]any)
	if !ok {
		t.Fatalf("class entry is not a map: %T", classes[0])
	}
	if class["name"] != "Wizard" || class["subclass"] != "School of Evocation" {
		t.Errorf("unexpected class entry: %v", class)
	}
	if level, ok := class["level"].(int); !ok || level != 5 {
		t.Errorf("expected class level 5, got %v", class["level"])
	}

	abilities, ok := props["abilities"].(map[string]any)
	if !ok {
		t.Fatalf("abilities is not a map: %T", props["abilities"])
	}
	if got, ok := abilities["intelligence"].(int); !ok || got != 17 {
		t.Errorf("expected intelligence 17, got %v", abilities["intelligence"])
	}

	spells, ok := props["spells"].([]any)
	if !ok || len(spells) != 4 {
		t.Fatalf("expected 4 spells, got %v", props["spells"])
	}
	if spells[3] != "Fireball" {
		t.Errorf("expected spell order preserved, got %v", spells)
	}

	personality, ok := props["personality"].(map[string]any)
	if !ok || personality["flaws"] != "Overconfident." {
		t.Errorf("unexpected personality: %v", props["personality"])
	}
}

func TestLuaLoader_Multiclass(t *testing.T) {
	script := `
local c = Character.new("Shadow")
c:class("Rogue", 3)
c:class("Wizard", 2)
return c
`
	p := &LuaLoader{}
	props, err := p.Load(strings.NewReader(script), "shadow.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	classes, _ := props["classes"].([]any)
	if len(classes) != 2 {
		t.Fatalf("expected 2 class entries, got %d", len(classes))
	}
}

func TestLuaLoader_EmptyList(t *testing.T) {
	script := `
local c = Character.new("Grunt")
c:class("Fighter", 1)
c:spells{}
return c
`
	p := &LuaLoader{}
	props, err := p.Load(strings.NewReader(script), "grunt.lua")
	if err != nil {
		t.Fatalf("empty list should be valid: %v", err)
	}
	spells, ok := props["spells"].([]any)
	if !ok {
		t.Fatalf("expected empty list, got %T", props["spells"])
	}
	if len(spells) != 0 {
		t.Errorf("expected no spells, got %v", spells)
	}
}

func TestLuaLoader_SyntaxError(t *testing.T) {
	p := &LuaLoader{}
	_, err := p.Load(strings.NewReader("local c = Character.new("), "broken.lua")
	if err == nil {
		t.Fatal("expected error for malformed script")
	}
}

func TestLuaLoader_NoReturnValue(t *testing.T) {
	p := &LuaLoader{}
	_, err := p.Load(strings.NewReader(`local c = Character.new("Ghost")`), "ghost.lua")
	if err == nil {
		t.Fatal("expected error when script does not return a character")
	}
	if !strings.Contains(err.Error(), "must return a Character") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLuaLoader_ReturnsWrongType(t *testing.T) {
	p := &LuaLoader{}
	_, err := p.Load(strings.NewReader(`return 42`), "number.lua")
	if err == nil {
		t.Fatal("expected error when script returns a non-character")
	}
}

func TestLuaLoader_RuntimeError(t *testing.T) {
	p := &LuaLoader{}
	_, err := p.Load(strings.NewReader(`error("boom")`), "boom.lua")
	if err == nil {
		t.Fatal("expected error from script runtime failure")
	}
}
