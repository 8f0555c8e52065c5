package mailauth

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXOAuth2InitialResponse(t *testing.T) {
	c := NewXOAuth2Client("ana@gmail.com", "ya29.token")
	mech, ir, err := c.Start()
	require.NoError(t, err)
	assert.Equal(t, "XOAUTH2", mech)
	assert.Equal(t, "user=ana@gmail.com\x01auth=Bearer ya29.token\x01\x01", string(ir))
}

func TestXOAuth2ErrorChallenge(t *testing.T) {
	c := NewXOAuth2Client("ana@gmail.com", "expired")
	_, _, err := c.Start()
	require.NoError(t, err)

	// Primera challenge (el JSON de error del server): respuesta vacía.
	resp, err := c.Next([]byte(`{"status":"401"}`))
	require.NoError(t, err)
	assert.Empty(t, resp)

	// Una segunda challenge no tiene sentido en XOAUTH2.
	_, err = c.Next([]byte("again"))
	require.Error(t, err)
}

func TestOAuthBearerInitialResponse(t *testing.T) {
	c := NewOAuthBearerClient("ana@outlook.com", "tok123", "outlook.office365.com", 993)
	mech, ir, err := c.Start()
	require.NoError(t, err)
	assert.Equal(t, "OAUTHBEARER", mech)
	assert.Contains(t, string(ir), "auth=Bearer tok123")
	assert.Contains(t, string(ir), "host=outlook.office365.com")
}

func unsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := map[string]any{"alg": "none", "typ": "JWT"}
	return enc(header) + "." + enc(claims) + "."
}

func TestFromIDToken(t *testing.T) {
	id, err := FromIDToken(unsignedJWT(t, map[string]any{
		"sub":            "10823",
		"email":          "ana@gmail.com",
		"email_verified": true,
		"name":           "Ana Pérez",
		"picture":        "https://example.com/a.png",
	}))
	require.NoError(t, err)
	assert.Equal(t, "ana@gmail.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Ana Pérez", id.Name)
	assert.Equal(t, "10823", id.Sub)
}

func TestFromIDTokenMissingClaims(t *testing.T) {
	id, err := FromIDToken(unsignedJWT(t, map[string]any{"sub": "x"}))
	require.NoError(t, err)
	assert.Empty(t, id.Email)
	assert.False(t, id.EmailVerified)
}

func TestFromIDTokenGarbage(t *testing.T) {
	_, err := FromIDToken("not-a-jwt")
	require.Error(t, err)
	_, err = FromIDToken("")
	require.Error(t, err)
}
