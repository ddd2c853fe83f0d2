package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/passvault/internal/common"
)

func TestCredential_Validate(t *testing.T) {
	assert.NoError(t, Credential{Title: "Gmail"}.Validate())
	assert.ErrorIs(t, Credential{Title: "  "}.Validate(), common.ErrorValidation)
	assert.ErrorIs(t, Credential{}.Validate(), common.ErrorValidation)
}

func TestCredential_Wipe(t *testing.T) {
	c := Credential{Title: "t", Username: "u", Password: "p", Notes: "n"}
	c.Wipe()
	assert.Equal(t, Credential{Title: "t", Username: "u"}, c)
}
