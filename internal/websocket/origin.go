package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// originPolicy is the normalized form of the configured allow-list.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	policy := originPolicy{allowed: make(map[string]struct{})}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}

		if trimmed == "*" {
			policy.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("origin", origin).Msg("ws: ignoring invalid origin in configuration")
			continue
		}
		policy.allowed[normalized] = struct{}{}
	}

	return policy
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// check allows handshakes without an Origin header; only browsers send one.
func (p originPolicy) check(r *http.Request) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" || p.allowAll {
		return true
	}

	normalized, ok := normalizeOrigin(originHeader)
	if ok {
		if _, exists := p.allowed[normalized]; exists {
			return true
		}
	}

	log.Warn().Str("origin", originHeader).Msg("ws: blocked connection from disallowed origin")
	return false
}
