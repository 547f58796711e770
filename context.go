package dossier

import (
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
)

// Context is the shared mutable state threaded through every tool handler
// during one Agent invocation: a generic key-value mapping plus a dedicated
// mapping from person identifier to Person record.
//
// A Context is created once per invocation (or supplied by the caller for
// continuity across invocations) and is mutated only by tool handlers during
// the loop. Access is single-threaded; dispatch is sequential, so no locking
// is done here. Callers that parallelize dispatch must add their own mutual
// exclusion.
type Context struct {
	data   map[string]any
	people map[string]*Person
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{
		data:   make(map[string]any),
		people: make(map[string]*Person),
	}
}

// Set inserts or overwrites a value. Always succeeds.
func (c *Context) Set(key string, value any) {
	c.data[key] = value
}

// Get returns the stored value and whether the key exists.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

// GetDefault returns the stored value, or def when the key is absent.
func (c *Context) GetDefault(key string, def any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return def
}

// Update merges values into the generic mapping, overwriting on conflict
// (last-writer-wins). Always succeeds.
func (c *Context) Update(values map[string]any) {
	for k, v := range values {
		c.data[k] = v
	}
}

// Keys returns the sorted keys of the generic mapping.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AddPerson stores a person under id, overwriting any existing record at that
// identifier (last write wins, no duplicate-key error).
func (c *Context) AddPerson(id string, p *Person) {
	c.people[id] = p
}

// Person returns the record stored under id, or (nil, false).
func (c *Context) Person(id string) (*Person, bool) {
	p, ok := c.people[id]
	return p, ok
}

// RemovePerson deletes the record stored under id, if any.
func (c *Context) RemovePerson(id string) {
	delete(c.people, id)
}

// People returns the sorted person identifiers.
func (c *Context) People() []string {
	ids := make([]string, 0, len(c.people))
	for id := range c.people {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of person records.
func (c *Context) Len() int {
	return len(c.people)
}

// Export renders the whole store as a generic mapping (person records become
// plain maps). The result is suitable for display or caller-side persistence;
// Import restores it.
func (c *Context) Export() map[string]any {
	data := make(map[string]any, len(c.data))
	for k, v := range c.data {
		data[k] = v
	}
	people := make(map[string]any, len(c.people))
	for id, p := range c.people {
		people[id] = p.asMap()
	}
	return map[string]any{
		"data":   data,
		"people": people,
	}
}

// Import restores a Context previously rendered by Export, replacing the
// current contents. Person records are decoded from their generic mapping
// form, so a map that went through JSON on the way back still restores.
func (c *Context) Import(m map[string]any) error {
	data := make(map[string]any)
	if raw, ok := m["data"].(map[string]any); ok {
		for k, v := range raw {
			data[k] = v
		}
	}
	people := make(map[string]*Person)
	if raw, ok := m["people"].(map[string]any); ok {
		for id, rec := range raw {
			var p Person
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				Result:           &p,
				WeaklyTypedInput: true,
			})
			if err != nil {
				return fmt.Errorf("person %q: %w", id, err)
			}
			if err := dec.Decode(rec); err != nil {
				return fmt.Errorf("person %q: %w", id, err)
			}
			people[id] = &p
		}
	}
	c.data = data
	c.people = people
	return nil
}
