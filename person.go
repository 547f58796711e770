package dossier

import (
	"fmt"
	"slices"
)

// Person is a record for one individual mentioned in or speaking on a
// transcript. Identity is the key under which it is stored in a Context;
// renaming a person is the caller's responsibility (see the update_person
// handler, which rekeys the store).
type Person struct {
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Role        string   `json:"role,omitempty" mapstructure:"role"`
	SpeakerID   string   `json:"speaker_id,omitempty" mapstructure:"speaker_id"`
	Quotes      []string `json:"quotes,omitempty" mapstructure:"quotes"`
}

// PersonUpdate carries optional field updates; nil means "leave unchanged".
type PersonUpdate struct {
	Name        *string
	Description *string
	Role        *string
	SpeakerID   *string
}

// Apply sets every non-nil field from u and reports whether anything changed.
func (p *Person) Apply(u PersonUpdate) bool {
	changed := false
	if u.Name != nil && *u.Name != p.Name {
		p.Name = *u.Name
		changed = true
	}
	if u.Description != nil && *u.Description != p.Description {
		p.Description = *u.Description
		changed = true
	}
	if u.Role != nil && *u.Role != p.Role {
		p.Role = *u.Role
		changed = true
	}
	if u.SpeakerID != nil && *u.SpeakerID != p.SpeakerID {
		p.SpeakerID = *u.SpeakerID
		changed = true
	}
	return changed
}

// AddQuote appends a quote attributed to the person.
func (p *Person) AddQuote(quote string) {
	p.Quotes = append(p.Quotes, quote)
}

// Merge folds other into p: empty fields of p take other's value, non-empty
// fields keep their own. Quotes are unioned preserving order, duplicates
// dropped.
func (p *Person) Merge(other *Person) {
	if other == nil {
		return
	}
	if p.Name == "" {
		p.Name = other.Name
	}
	if p.Description == "" {
		p.Description = other.Description
	}
	if p.Role == "" {
		p.Role = other.Role
	}
	if p.SpeakerID == "" {
		p.SpeakerID = other.SpeakerID
	}
	for _, q := range other.Quotes {
		if !slices.Contains(p.Quotes, q) {
			p.Quotes = append(p.Quotes, q)
		}
	}
}

// Clone returns a deep copy of the person.
func (p *Person) Clone() *Person {
	cp := *p
	cp.Quotes = append([]string(nil), p.Quotes...)
	return &cp
}

func (p *Person) String() string {
	return fmt.Sprintf("Person(name=%q, role=%q, quotes=%d)", p.Name, p.Role, len(p.Quotes))
}

// asMap renders the person as a generic mapping for Context.Export.
func (p *Person) asMap() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"role":        p.Role,
		"speaker_id":  p.SpeakerID,
		"quotes":      append([]string(nil), p.Quotes...),
	}
}
