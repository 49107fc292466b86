package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractEmail_Malformed(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"single segment", "abcdef"},
		{"invalid base64", "header.!!!not-base64!!!.sig"},
		{"impossible length", "header.abcde.sig"},
		{"payload not json", "header." + enc([]byte("not json")) + ".sig"},
		{"payload is json array", "header." + enc([]byte(`["a"]`)) + ".sig"},
		{"missing email", "header." + enc([]byte(`{"sub":"123"}`)) + ".sig"},
		{"empty email", "header." + enc([]byte(`{"email":""}`)) + ".sig"},
		{"email wrong type", "header." + enc([]byte(`{"email":42}`)) + ".sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, ok := ExtractEmail(tt.token)
			assert.False(t, ok)
			assert.Empty(t, email)
		})
	}
}

func TestExtractEmail_PaddingLengths(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 8; i++ {
		payload := `{"email":"user@example.com","x":"` + strings.Repeat("a", i) + `"}`
		segment := base64.RawURLEncoding.EncodeToString([]byte(payload))
		seen[len(segment)%4] = true

		email, ok := ExtractEmail("header." + segment + ".sig")
		assert.True(t, ok, "payload length %d", len(segment))
		assert.Equal(t, "user@example.com", email)
	}
	assert.True(t, seen[0] && seen[2] && seen[3], "expected all valid padding remainders, got %v", seen)
}

func TestExtractEmail_AcceptsPaddedAndTwoSegmentTokens(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte(`{"email":"a@b.co"}`))
	email, ok := ExtractEmail("header." + padded)
	assert.True(t, ok)
	assert.Equal(t, "a@b.co", email)
}

func TestExtractEmail_MintedToken(t *testing.T) {
	token := mintIDToken(t, "dev@example.com", time.Now().Add(time.Hour))
	email, ok := ExtractEmail(token)
	assert.True(t, ok)
	assert.Equal(t, "dev@example.com", email)
}

func TestIdentityTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	got, ok := IdentityTokenExpiry(mintIDToken(t, "dev@example.com", exp))
	assert.True(t, ok)
	assert.True(t, exp.Equal(got), "expected %v, got %v", exp, got)

	_, ok = IdentityTokenExpiry("")
	assert.False(t, ok)
	_, ok = IdentityTokenExpiry("abc.def")
	assert.False(t, ok)
}

func TestCredentials_Expired(t *testing.T) {
	now := time.Now()

	assert.False(t, (&Credentials{Token: "t"}).Expired(now), "no expiry information")
	assert.True(t, (&Credentials{Expiry: now.Add(-time.Minute)}).Expired(now))
	assert.True(t, (&Credentials{Expiry: now.Add(5 * time.Second)}).Expired(now), "within skew")
	assert.False(t, (&Credentials{Expiry: now.Add(time.Hour)}).Expired(now))

	expiredID := mintIDToken(t, "dev@example.com", now.Add(-time.Minute))
	assert.True(t, (&Credentials{IDToken: expiredID, Expiry: now.Add(time.Hour)}).Expired(now))
}
