package loader

import (
	"fmt"
	"io"
	"math"

	"github.com/Shopify/go-lua"
)

const characterTypeName = "character"

// LuaLoader executes a Lua character definition script. The script builds a
// character through Character.new and its builder methods and returns it:
//
//	local c = Character.new("Mordecai")
//	c:class("Wizard", 5, {subclass = "School of Evocation"})
//	c:abilities{strength = 8, intelligence = 17}
//	c:spells{"Fire Bolt", "Fireball"}
//	return c
type LuaLoader struct{}

// rawCharacter accumulates properties as the script calls builder methods.
type rawCharacter struct {
	props map[string]any
}

func (p *LuaLoader) Load(r io.Reader, filename string) (map[string]any, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerCharacterType(state)

	if err := state.Load(r, "@"+filename, ""); err != nil {
		return nil, fmt.Errorf("load character script: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run character script: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("character script must return a Character")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	raw, ok := ud.(*rawCharacter)
	if !ok || raw == nil {
		return nil, fmt.Errorf("character script returned an invalid Character")
	}
	return raw.props, nil
}

func registerCharacterType(state *lua.State) {
	lua.NewMetaTable(state, characterTypeName)
	state.NewTable()
	lua.SetFunctions(state, characterMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, characterConstructor, 0)
	state.SetGlobal("Character")
}

var characterConstructor = []lua.RegistryFunction{
	{Name: "new", Function: characterNew},
}

func characterNew(state *lua.State) int {
	name := lua.CheckString(state, 1)
	raw := &rawCharacter{props: map[string]any{"name": name}}
	state.PushUserData(raw)
	lua.SetMetaTableNamed(state, characterTypeName)
	return 1
}

var characterMethods = []lua.RegistryFunction{
	{Name: "race", Function: stringSetter("race")},
	{Name: "background", Function: stringSetter("background")},
	{Name: "alignment", Function: stringSetter("alignment")},
	{Name: "appearance", Function: stringSetter("appearance")},
	{Name: "backstory", Function: stringSetter("backstory")},
	{Name: "class", Function: characterClass},
	{Name: "abilities", Function: tableSetter("abilities")},
	{Name: "personality", Function: tableSetter("personality")},
	{Name: "skills", Function: listSetter("skills")},
	{Name: "saves", Function: listSetter("saves")},
	{Name: "languages", Function: listSetter("languages")},
	{Name: "spells", Function: listSetter("spells")},
	{Name: "equipment", Function: listSetter("equipment")},
	{Name: "magic_items", Function: listSetter("magic_items")},
	{Name: "features", Function: listSetter("features")},
}

func characterClass(state *lua.State) int {
	raw := checkCharacter(state)
	name := lua.CheckString(state, 2)
	level := lua.CheckInteger(state, 3)
	entry := map[string]any{"name": name, "level": level}
	for key, value := range optionalTable(state, 4) {
		entry[key] = value
	}
	classes, _ := raw.props["classes"].([]any)
	raw.props["classes"] = append(classes, entry)
	return 0
}

// stringSetter builds a method that stores one string property.
func stringSetter(key string) lua.Function {
	return func(state *lua.State) int {
		raw := checkCharacter(state)
		raw.props[key] = lua.CheckString(state, 2)
		return 0
	}
}

// tableSetter builds a method that stores a table property as a map.
func tableSetter(key string) lua.Function {
	return func(state *lua.State) int {
		raw := checkCharacter(state)
		lua.CheckType(state, 2, lua.TypeTable)
		raw.props[key] = tableToMap(state, 2)
		return 0
	}
}

// listSetter builds a method that stores an array-style table property.
func listSetter(key string) lua.Function {
	return func(state *lua.State) int {
		raw := checkCharacter(state)
		lua.CheckType(state, 2, lua.TypeTable)
		value := tableToGo(state, 2)
		list, ok := value.([]any)
		if !ok {
			lua.ArgumentError(state, 2, key+" expects an array table")
			return 0
		}
		raw.props[key] = list
		return 0
	}
}

func checkCharacter(state *lua.State) *rawCharacter {
	ud := lua.CheckUserData(state, 1, characterTypeName)
	if raw, ok := ud.(*rawCharacter); ok && raw != nil {
		return raw
	}
	lua.ArgumentError(state, 1, "character expected")
	return nil
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	total := 0
	state.PushNil()
	for state.Next(index) {
		total++
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	// {} carries no keys to tell a list from a map; list callers are the
	// ones that hit this, so decode it as an empty list.
	if total == 0 {
		return []any{}
	}
	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
