package dossier

// PromptName names a registered system prompt.
type PromptName string

// Registered prompt names.
const (
	PromptDefault PromptName = "default"
)

// DefaultSystemPrompt instructs the model on the person-record tools. Agent
// uses it unless WithSystemPrompt overrides.
const DefaultSystemPrompt = `You are a helpful assistant managing information about people.
Use the available tools to create, update, look up, or merge person records based on the user's request.
Available tools:
- create_person: create a new person record. Requires a name.
- update_person: modify an existing person's details or add a quote. Requires the person's current name.
- lookup_person: find a person by name or keyword. Requires a search term.
- merge_persons: combine two person records. Requires source and target names.

Respond with tool calls when a record needs to be read or changed; otherwise, respond naturally.`

var prompts = map[PromptName]string{
	PromptDefault: DefaultSystemPrompt,
}

// Prompt returns a registered prompt by name.
func Prompt(name PromptName) (string, bool) {
	p, ok := prompts[name]
	return p, ok
}
