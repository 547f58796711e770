package dossier

import (
	"context"
	"fmt"
	"strings"
)

// The closed enumeration of person-tool names. RegisterPersonTools registers
// exactly this set; Registry.Verify(PersonToolNames()...) confirms it at
// startup so a mismatch is caught before any provider request.
const (
	ToolCreatePerson = "create_person"
	ToolUpdatePerson = "update_person"
	ToolLookupPerson = "lookup_person"
	ToolMergePersons = "merge_persons"
)

// PersonToolNames returns the names of all person tools.
func PersonToolNames() []string {
	return []string{ToolCreatePerson, ToolUpdatePerson, ToolLookupPerson, ToolMergePersons}
}

// Context keys maintained by the person tool handlers.
const (
	keyLastOperation     = "last_operation"
	keyLastResultSummary = "last_result_summary"
	keySearchKeyword     = "search_keyword"
	keyMergedFrom        = "merged_from"
	keyMergedTo          = "merged_to"
)

// CreatePersonArgs are the arguments of the create_person tool.
type CreatePersonArgs struct {
	Name        string `json:"name" description:"The person's name"`
	Description string `json:"description,omitempty" description:"A description of the person"`
	Role        string `json:"role,omitempty" description:"The person's role"`
	SpeakerID   string `json:"speaker_id,omitempty" description:"The person's speaker ID"`
}

// UpdatePersonArgs are the arguments of the update_person tool. Optional
// fields are pointers so "absent" and "set to empty" stay distinguishable.
type UpdatePersonArgs struct {
	PersonName  string  `json:"person_name" description:"The name of the person to update"`
	Name        *string `json:"name,omitempty" description:"Updated name"`
	Description *string `json:"description,omitempty" description:"Updated description"`
	Role        *string `json:"role,omitempty" description:"Updated role"`
	SpeakerID   *string `json:"speaker_id,omitempty" description:"Updated speaker ID"`
	Quote       *string `json:"quote,omitempty" description:"A quote to add to the person"`
}

// LookupPersonArgs are the arguments of the lookup_person tool.
type LookupPersonArgs struct {
	Keyword string `json:"keyword" description:"The name or keyword to search for"`
}

// MergePersonsArgs are the arguments of the merge_persons tool.
type MergePersonsArgs struct {
	SourceName string `json:"source_name" description:"The name of the source person"`
	TargetName string `json:"target_name" description:"The name of the target person to merge into"`
}

// PersonSummary is the per-match payload of lookup_person results.
type PersonSummary struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// personOpResult is the common result shape of the mutating person tools.
type personOpResult struct {
	Status     string `json:"status"`
	PersonName string `json:"person_name,omitempty"`
	Details    string `json:"details,omitempty"`
	Message    string `json:"message,omitempty"`
}

// lookupResult is the result shape of lookup_person.
type lookupResult struct {
	Status  string          `json:"status"`
	Results []PersonSummary `json:"results,omitempty"`
	Count   int             `json:"count"`
	Message string          `json:"message,omitempty"`
}

// RegisterPersonTools builds the four person tools and registers them on reg.
// It fails if any schema cannot be generated, so call it at startup: after a
// nil error every name in PersonToolNames is guaranteed dispatchable.
func RegisterPersonTools(reg *Registry, opts ...ToolOption) error {
	create, err := NewTool(ToolCreatePerson, "Create a new person record in the shared context.", createPerson, opts...)
	if err != nil {
		return fmt.Errorf("build %s: %w", ToolCreatePerson, err)
	}
	update, err := NewTool(ToolUpdatePerson, "Update a person's data or add a quote.", updatePerson, opts...)
	if err != nil {
		return fmt.Errorf("build %s: %w", ToolUpdatePerson, err)
	}
	lookup, err := NewTool(ToolLookupPerson, "Find a person by name or keyword in description or role.", lookupPerson, opts...)
	if err != nil {
		return fmt.Errorf("build %s: %w", ToolLookupPerson, err)
	}
	merge, err := NewTool(ToolMergePersons, "Merge two person records, combining their data.", mergePersons, opts...)
	if err != nil {
		return fmt.Errorf("build %s: %w", ToolMergePersons, err)
	}
	reg.Register(create)
	reg.Register(update)
	reg.Register(lookup)
	reg.Register(merge)
	return reg.Verify(PersonToolNames()...)
}

func createPerson(_ context.Context, args CreatePersonArgs, cx *Context) (personOpResult, error) {
	p := &Person{
		Name:        args.Name,
		Description: args.Description,
		Role:        args.Role,
		SpeakerID:   args.SpeakerID,
	}
	// Last write wins: an existing record under the same name is replaced.
	cx.AddPerson(args.Name, p)
	cx.Update(map[string]any{
		keyLastOperation:     ToolCreatePerson,
		keyLastResultSummary: "Created person: " + args.Name,
	})
	return personOpResult{Status: "success", PersonName: args.Name, Details: p.String()}, nil
}

func updatePerson(_ context.Context, args UpdatePersonArgs, cx *Context) (personOpResult, error) {
	p, ok := cx.Person(args.PersonName)
	if !ok {
		return personOpResult{}, &ClientError{Reason: fmt.Sprintf("person %q not found, cannot update", args.PersonName)}
	}

	changed := p.Apply(PersonUpdate{
		Name:        args.Name,
		Description: args.Description,
		Role:        args.Role,
		SpeakerID:   args.SpeakerID,
	})
	// An explicit rename moves the record to its new key. A record may live
	// under a key that differs from its Name (e.g. a speaker id), so only the
	// name argument triggers the rekey, never the mismatch itself.
	if args.Name != nil && *args.Name != args.PersonName {
		cx.RemovePerson(args.PersonName)
		cx.AddPerson(p.Name, p)
		changed = true
	}
	if args.Quote != nil {
		p.AddQuote(*args.Quote)
		changed = true
	}
	if !changed {
		return personOpResult{Status: "no_change", Message: "no updates provided for " + args.PersonName}, nil
	}

	cx.Update(map[string]any{
		keyLastOperation:     ToolUpdatePerson,
		keyLastResultSummary: "Updated person: " + p.Name,
	})
	return personOpResult{Status: "success", PersonName: p.Name, Details: p.String()}, nil
}

func lookupPerson(_ context.Context, args LookupPersonArgs, cx *Context) (lookupResult, error) {
	keyword := strings.ToLower(args.Keyword)
	var results []PersonSummary
	for _, id := range cx.People() {
		p, _ := cx.Person(id)
		if strings.Contains(strings.ToLower(id), keyword) ||
			strings.Contains(strings.ToLower(p.Name), keyword) ||
			strings.Contains(strings.ToLower(p.Description), keyword) ||
			strings.Contains(strings.ToLower(p.Role), keyword) {
			results = append(results, PersonSummary{Name: p.Name, Role: p.Role, Description: p.Description})
		}
	}

	cx.Update(map[string]any{
		keyLastOperation:     ToolLookupPerson,
		keyLastResultSummary: fmt.Sprintf("Found %d match(es) for %q", len(results), args.Keyword),
		keySearchKeyword:     args.Keyword,
	})

	if len(results) == 0 {
		return lookupResult{Status: "no_matches", Message: fmt.Sprintf("no people found matching %q", args.Keyword)}, nil
	}
	return lookupResult{Status: "success", Results: results, Count: len(results)}, nil
}

func mergePersons(_ context.Context, args MergePersonsArgs, cx *Context) (personOpResult, error) {
	if args.SourceName == args.TargetName {
		return personOpResult{}, &ClientError{Reason: fmt.Sprintf("cannot merge person %q into themself", args.SourceName)}
	}
	source, ok := cx.Person(args.SourceName)
	if !ok {
		return personOpResult{}, &ClientError{Reason: fmt.Sprintf("source person %q not found, cannot merge", args.SourceName)}
	}
	target, ok := cx.Person(args.TargetName)
	if !ok {
		return personOpResult{}, &ClientError{Reason: fmt.Sprintf("target person %q not found, cannot merge", args.TargetName)}
	}

	target.Merge(source)
	cx.RemovePerson(args.SourceName)
	cx.Update(map[string]any{
		keyLastOperation:     ToolMergePersons,
		keyLastResultSummary: fmt.Sprintf("Merged %s into %s", args.SourceName, args.TargetName),
		keyMergedFrom:        args.SourceName,
		keyMergedTo:          args.TargetName,
	})
	return personOpResult{Status: "success", PersonName: target.Name, Details: target.String()}, nil
}
