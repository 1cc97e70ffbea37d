package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gigboard_test")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("SERVICE_FEE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultServiceFee, cfg.ServiceFee)
	assert.Equal(t, "http://localhost:8080", cfg.AppBaseURL)
}

func TestLoadServiceFee(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVICE_FEE", "3.75")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3.75, cfg.ServiceFee)
}

func TestLoadInvalidServiceFeeFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVICE_FEE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceFee, cfg.ServiceFee)
}

func TestValidateMissingRequired(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"database url", "DATABASE_URL"},
		{"stripe key", "STRIPE_SECRET_KEY"},
		{"webhook secret", "STRIPE_WEBHOOK_SECRET"},
		{"jwt secret", "JWT_SECRET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.unset, "")
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
