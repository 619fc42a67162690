package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Key identifies one provider request by endpoint and query parameters.
type Key struct {
	Endpoint string
	Params   map[string]string
}

func NewKey(endpoint string, params map[string]string) Key {
	return Key{Endpoint: strings.TrimSpace(endpoint), Params: params}
}

// Query renders params sorted by name so equal parameter sets always produce
// the same string. Empty values are dropped.
func (k Key) Query() string {
	names := make([]string, 0, len(k.Params))
	for name, value := range k.Params {
		if strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(strings.TrimSpace(k.Params[name])))
	}
	return b.String()
}

// Canonical is the in-process cache key.
func (k Key) Canonical() string {
	query := k.Query()
	if query == "" {
		return k.Endpoint
	}
	return k.Endpoint + "?" + query
}

// Fingerprint is the durable-tier key for the params part.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256([]byte(k.Query()))
	return hex.EncodeToString(sum[:])
}
