package apifootball

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
)

type Paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// envelopeHeader is every API-Football body minus the response payload.
// errors arrives as [] when clean and as an object keyed by field otherwise.
type envelopeHeader struct {
	Get     string `json:"get"`
	Errors  any    `json:"errors"`
	Results int    `json:"results"`
	Paging  Paging `json:"paging"`
}

type envelope[T any] struct {
	Response T `json:"response"`
}

func decodeEnvelopeHeader(raw []byte) (envelopeHeader, error) {
	var header envelopeHeader
	if err := sonic.Unmarshal(raw, &header); err != nil {
		return envelopeHeader{}, fmt.Errorf("decode provider envelope: %w", err)
	}
	return header, nil
}

// envelopeErrors flattens the errors field into sorted "field: message" pairs.
func envelopeErrors(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make([]string, 0, len(typed))
		for field, message := range typed {
			out = append(out, strings.TrimSpace(fmt.Sprintf("%s: %v", field, message)))
		}
		sort.Strings(out)
		return out
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if text := strings.TrimSpace(fmt.Sprint(item)); text != "" {
				out = append(out, text)
			}
		}
		return out
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		return []string{strings.TrimSpace(typed)}
	default:
		return []string{fmt.Sprint(typed)}
	}
}

// envelopeErrorKind separates throttling reported inside a 200 body from
// plain request validation errors.
func envelopeErrorKind(value any) ErrorKind {
	fields, ok := value.(map[string]any)
	if !ok {
		return KindClient
	}
	for field := range fields {
		switch strings.ToLower(field) {
		case "ratelimit", "requests":
			return KindRateLimited
		}
	}
	return KindClient
}

// IsEmptyEnvelope reports cached bodies that must never be served: blank
// payloads, undecodable bodies and envelopes carrying no results.
func IsEmptyEnvelope(payload []byte) bool {
	if cache.IsPlaceholderPayload(payload) {
		return true
	}
	header, err := decodeEnvelopeHeader(payload)
	if err != nil {
		return true
	}
	if len(envelopeErrors(header.Errors)) > 0 {
		return true
	}
	return header.Results <= 0 && !hasResponseData(payload)
}

// hasResponseData covers endpoints such as /teams/statistics that report
// results as 0 or omit it while returning an object.
func hasResponseData(payload []byte) bool {
	var body envelope[any]
	if err := sonic.Unmarshal(payload, &body); err != nil {
		return false
	}
	switch typed := body.Response.(type) {
	case nil:
		return false
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	default:
		return true
	}
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(bytes.TrimSpace(raw)))
	if len(body) <= 240 {
		return body
	}
	return body[:240] + "..."
}
