package keyring_test

import (
	"testing"

	"github.com/alkime/assessor/internal/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func TestAPIKeyFromServiceName(t *testing.T) {
	tests := []struct {
		name    string
		service string
		want    keyring.APIKey
		wantErr bool
	}{
		{name: "groq", service: "groq", want: keyring.Groq},
		{name: "anthropic", service: "anthropic", want: keyring.Anthropic},
		{name: "unknown", service: "openai", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyring.APIKeyFromServiceName(tt.service)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.service, got.DisplayName())
		})
	}
}

func TestKeychainRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	assert.False(t, keyring.IsSet(keyring.Groq))
	assert.Empty(t, keyring.Resolve("", keyring.Groq))

	require.NoError(t, keyring.Set(keyring.Groq, "gsk-from-keychain"))
	assert.True(t, keyring.IsSet(keyring.Groq))
	assert.Equal(t, "gsk-from-keychain", keyring.Resolve("", keyring.Groq))
	assert.Equal(t, "gsk-from-env", keyring.Resolve("gsk-from-env", keyring.Groq))

	require.NoError(t, keyring.Delete(keyring.Groq))
	require.NoError(t, keyring.Delete(keyring.Groq), "deleting a missing key is fine")
	assert.False(t, keyring.IsSet(keyring.Groq))
}
