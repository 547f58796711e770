package testutil

import (
	"time"

	"github.com/dossierkit/dossier"
)

// NewTestRegistry returns a Registry with long timeout and panic recovery
// enabled, suitable for tests.
func NewTestRegistry(tools ...dossier.Tool) *dossier.Registry {
	reg := dossier.NewRegistry(
		dossier.WithDefaultTimeout(30*time.Second),
		dossier.WithRecoverPanics(true),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
