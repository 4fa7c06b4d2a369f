package recipe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// DeeplinkScheme is the custom URI scheme recipes are shared under.
const DeeplinkScheme = "goose"

// EncodeDeeplink renders the recipe as a goose://recipe?config=<base64>
// link. The payload is URL-safe unpadded base64 of the recipe JSON.
func EncodeDeeplink(r *Recipe) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding recipe: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(data)
	return fmt.Sprintf("%s://recipe?config=%s", DeeplinkScheme, token), nil
}

// DecodeDeeplink parses a recipe from a deep link. It accepts the full
// goose://recipe?config=... URI or a bare base64 token, and tolerates
// both the standard and URL-safe alphabets with or without padding.
func DecodeDeeplink(link string) (*Recipe, error) {
	token := strings.TrimSpace(link)

	if strings.Contains(token, "://") {
		u, err := url.Parse(token)
		if err != nil {
			return nil, fmt.Errorf("parsing deeplink: %w", err)
		}
		if u.Scheme != DeeplinkScheme {
			return nil, fmt.Errorf("unsupported deeplink scheme %q", u.Scheme)
		}
		token = u.Query().Get("config")
		if token == "" {
			return nil, fmt.Errorf("deeplink has no config payload")
		}
		// query decoding turns a standard-alphabet + into a space
		token = strings.ReplaceAll(token, " ", "+")
	}

	data, err := decodeBase64(token)
	if err != nil {
		return nil, fmt.Errorf("decoding deeplink payload: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("deeplink payload is not a recipe: %w", err)
	}
	return r, nil
}

// decodeBase64 tries the URL-safe and standard alphabets, unpadded and
// padded. Links are produced unpadded URL-safe but arrive from enough
// different tools that the lenient read is worth it.
func decodeBase64(token string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(token)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
