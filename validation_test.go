package dossier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatable_NotImplemented(t *testing.T) {
	type Args struct {
		Low  int `json:"low"`
		High int `json:"high"`
	}
	args := &Args{Low: 10, High: 5}
	// Args does not implement Validatable; validateCustom should no-op.
	err := validateCustom(args)
	assert.NoError(t, err)
}

func TestValidateCustom_Implemented(t *testing.T) {
	assert.NoError(t, validateCustom(rangeArgs{Low: 1, High: 2}))
	assert.Error(t, validateCustom(rangeArgs{Low: 2, High: 1}))
}
