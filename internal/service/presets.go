package service

// Preset is one named system-prompt persona for the steering walkthrough
type Preset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// DefaultPresetID is used when a request names no preset
const DefaultPresetID = "default"

var presets = []Preset{
	{
		ID:     "default",
		Name:   "Default",
		Prompt: "You are a helpful assistant.",
	},
	{
		ID:     "coder",
		Name:   "Engineer",
		Prompt: "You are a senior software engineer. Explain concepts through concise code examples and keep a professional, to-the-point tone.",
	},
	{
		ID:     "teacher",
		Name:   "Teacher",
		Prompt: "You are a patient teacher. Explain concepts with simple analogies and everyday examples so someone with no background can follow.",
	},
	{
		ID:     "creative",
		Name:   "Creative",
		Prompt: "You are an imaginative writer. Express ideas vividly and playfully; metaphors and emoji are welcome.",
	},
}

// Presets returns the preset catalog in display order
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// ResolveSystemPrompt picks the effective system prompt: a known preset wins,
// then a caller-supplied custom prompt, then the default persona.
func ResolveSystemPrompt(presetID, custom string) string {
	for _, p := range presets {
		if p.ID == presetID {
			return p.Prompt
		}
	}
	if custom != "" {
		return custom
	}
	return presets[0].Prompt
}
