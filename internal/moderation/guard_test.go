package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gigboard/internal/domain"
)

func TestCheckJobContentValid(t *testing.T) {
	err := CheckJobContent("Move a couch", "Help me carry a couch up two flights of stairs.")
	assert.NoError(t, err)
}

func TestCheckJobContentRejections(t *testing.T) {
	longDesc := "A perfectly reasonable description of honest work."

	cases := []struct {
		name        string
		title       string
		description string
	}{
		{"empty title", "", longDesc},
		{"whitespace title", "   ", longDesc},
		{"empty description", "Valid title", ""},
		{"whitespace description", "Valid title", "   \t"},
		{"short title", "Hi", longDesc},
		{"short description", "Valid title", "too short"},
		{"blocklisted title", "Selling weapons cheap", longDesc},
		{"blocklisted description", "Valid title", "help me move my counterfeit handbag collection"},
		{"blocklist is case-insensitive", "Valid title", "need help with some NARCOTIC deliveries today"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckJobContent(tc.title, tc.description)
			assert.Error(t, err)

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Reason)
		})
	}
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(10))
	assert.NoError(t, CheckAmount(50))
	assert.NoError(t, CheckAmount(10000))

	assert.Error(t, CheckAmount(9.99))
	assert.Error(t, CheckAmount(0))
	assert.Error(t, CheckAmount(-5))
	assert.Error(t, CheckAmount(10000.01))
}

func TestValidationErrorReasonIsHumanReadable(t *testing.T) {
	err := CheckAmount(5)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.True(t, strings.Contains(verr.Reason, "$10.00"), "reason should name the bound: %s", verr.Reason)
}
