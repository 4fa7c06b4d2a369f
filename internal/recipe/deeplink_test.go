package recipe

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeeplinkRoundTrip(t *testing.T) {
	r := validRecipe()

	link, err := EncodeDeeplink(r)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "goose://recipe?config="))
	token := strings.TrimPrefix(link, "goose://recipe?config=")
	assert.NotContains(t, token, "=", "payload is unpadded")

	decoded, err := DecodeDeeplink(link)
	require.NoError(t, err)
	assert.Equal(t, r.Title, decoded.Title)
	assert.Equal(t, r.Instructions, decoded.Instructions)
	assert.Equal(t, r.Parameters, decoded.Parameters)
}

func TestDecodeDeeplinkBareToken(t *testing.T) {
	data, err := json.Marshal(validRecipe())
	require.NoError(t, err)

	decoded, err := DecodeDeeplink(base64.RawURLEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.Equal(t, "Code Review", decoded.Title)
}

func TestDecodeDeeplinkAlphabets(t *testing.T) {
	data, err := json.Marshal(validRecipe())
	require.NoError(t, err)

	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	} {
		decoded, err := DecodeDeeplink("goose://recipe?config=" + enc.EncodeToString(data))
		require.NoError(t, err)
		assert.Equal(t, "Code Review", decoded.Title)
	}
}

func TestDecodeDeeplinkErrors(t *testing.T) {
	_, err := DecodeDeeplink("slack://recipe?config=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported deeplink scheme")

	_, err = DecodeDeeplink("goose://recipe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config payload")

	_, err = DecodeDeeplink("goose://recipe?config=!!!not-base64!!!")
	require.Error(t, err)

	// valid base64 but not a recipe document
	_, err = DecodeDeeplink(base64.RawURLEncoding.EncodeToString([]byte("{broken")))
	require.Error(t, err)
}
