package oauth

import (
	"errors"
	"strings"
	"testing"

	"crm/lib/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestStateRoundTrip(t *testing.T) {
	codec, err := NewStateCodec("test-secret")
	assert.NoError(t, err)

	token, err := codec.Encode("user-1", "https://app.example.com")
	assert.NoError(t, err)

	payload, err := codec.Decode(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, "https://app.example.com", payload.ClientOrigin)
	assert.NotEmpty(t, payload.Nonce)
}

func TestStateDecode_TamperedBody(t *testing.T) {
	codec, _ := NewStateCodec("test-secret")
	token, _ := codec.Encode("user-1", "https://app.example.com")

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]

	_, err := codec.Decode(tampered)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
}

func TestStateDecode_WrongSecret(t *testing.T) {
	codec, _ := NewStateCodec("test-secret")
	other, _ := NewStateCodec("other-secret")
	token, _ := codec.Encode("user-1", "https://app.example.com")

	_, err := other.Decode(token)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
}

func TestStateDecode_Garbage(t *testing.T) {
	codec, _ := NewStateCodec("test-secret")

	for _, token := range []string{"", "no-dot", "a.b.c", "!!!.???"} {
		_, err := codec.Decode(token)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState), token)
	}
}

func TestNewStateCodec_EmptySecret(t *testing.T) {
	_, err := NewStateCodec("")
	assert.Error(t, err)
}
