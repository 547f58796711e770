// Package transcript turns a diarized conversation transcript into an initial
// dossier.Context: one Person per speaker, every segment stored as a quote,
// with heuristic name and role promotion driven by caller-supplied patterns.
//
// The heuristics here are deliberately simple (regex matching, not NER); the
// tool-calling loop only requires that the output honors the Context contract.
package transcript

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dossierkit/dossier"
)

// Segment is one diarized utterance.
type Segment struct {
	ID      int     `json:"id,omitempty"`
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start,omitempty"`
	End     float64 `json:"end,omitempty"`
	Text    string  `json:"text"`
}

// Transcript is a diarized conversation with optional metadata.
type Transcript struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Segments []Segment      `json:"segments"`
}

// Context keys set by Build.
const (
	KeyProcessed = "transcript_processed"
	KeyMetadata  = "transcript_metadata"
)

// Builder extracts speakers and quotes from a transcript.
type Builder struct {
	namePatterns map[string]*regexp.Regexp
	roles        map[string]string
	titleRoles   []titleRole
	logger       *slog.Logger
}

type titleRole struct {
	title string
	role  string
}

// Option configures a Builder.
type Option func(*Builder)

// WithNamePattern promotes a speaker's placeholder name to the first match of
// re in that speaker's own segments (e.g. a speaker stating their name).
func WithNamePattern(speakerID string, re *regexp.Regexp) Option {
	return func(b *Builder) {
		b.namePatterns[speakerID] = re
	}
}

// WithRole assigns a role to a speaker when no other rule has set one.
func WithRole(speakerID, role string) Option {
	return func(b *Builder) {
		b.roles[speakerID] = role
	}
}

// WithTitleRole derives a role from a promoted name: a name containing title
// (e.g. "Officer") gets the given role. Rules apply in registration order,
// first match wins.
func WithTitleRole(title, role string) Option {
	return func(b *Builder) {
		b.titleRoles = append(b.titleRoles, titleRole{title: title, role: role})
	}
}

// WithLogger sets the logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		namePatterns: make(map[string]*regexp.Regexp),
		roles:        make(map[string]string),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build processes the transcript into a fresh Context. Every speaker becomes
// a Person keyed by speaker id, with a placeholder name until a name pattern
// matches; all of the speaker's segments are stored as quotes in order.
func (b *Builder) Build(t Transcript) *dossier.Context {
	cx := dossier.NewContext()

	for _, seg := range t.Segments {
		if seg.Speaker == "" {
			continue
		}
		p, ok := cx.Person(seg.Speaker)
		if !ok {
			p = &dossier.Person{
				Name:      placeholderName(seg.Speaker),
				SpeakerID: seg.Speaker,
			}
			cx.AddPerson(seg.Speaker, p)
			b.logger.Debug("identified speaker", "speaker", seg.Speaker, "name", p.Name)
		}

		p.AddQuote(seg.Text)

		if re, ok := b.namePatterns[seg.Speaker]; ok {
			if name := re.FindString(seg.Text); name != "" && p.Name != name {
				b.logger.Debug("promoted speaker name", "speaker", seg.Speaker, "name", name)
				p.Name = name
				if role := b.roleForName(name); role != "" {
					p.Role = role
				}
			}
		}
		if p.Role == "" {
			if role, ok := b.roles[seg.Speaker]; ok {
				p.Role = role
			}
		}
	}

	cx.Set(KeyProcessed, true)
	if t.Metadata != nil {
		cx.Set(KeyMetadata, t.Metadata)
	}
	return cx
}

func (b *Builder) roleForName(name string) string {
	for _, tr := range b.titleRoles {
		if strings.Contains(name, tr.title) {
			return tr.role
		}
	}
	return ""
}

// placeholderName renders a readable default for a diarization speaker id:
// "S1" becomes "Speaker 1", anything else "Speaker <id>".
func placeholderName(speakerID string) string {
	trimmed := strings.TrimLeft(speakerID, "Ss")
	if trimmed != "" && strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		return "Speaker " + trimmed
	}
	return "Speaker " + speakerID
}
