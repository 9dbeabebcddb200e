package config

import (
	"strings"
)

// secretKeys lists the dot-separated keys whose values are masked by
// `chathub config list` and `get`.
var secretKeys = map[string]bool{
	"llm.api_key":               true,
	"telegram.token":            true,
	"nats.token":                true,
	"feishu.app_secret":         true,
	"feishu.verification_token": true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// Flatten converts nested config sections into dot-separated keys:
// {"nats": {"subject": "chathub.reports"}} becomes {"nats.subject": "chathub.reports"}.
// Slices such as jobs stay whole under their key.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(path []string, m map[string]any)
	walk = func(path []string, m map[string]any) {
		for k, v := range m {
			p := append(path[:len(path):len(path)], k)
			if child, ok := v.(map[string]any); ok {
				walk(p, child)
				continue
			}
			out[strings.Join(p, ".")] = v
		}
	}
	walk(nil, m)
	return out
}

// Unflatten is the inverse of Flatten. A key that collides with a scalar
// parent replaces the scalar.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		setPath(out, strings.Split(k, "."), v)
	}
	return out
}

func setPath(m map[string]any, parts []string, v any) {
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// MaskValue hides all but the last four characters of a secret string.
// Empty and non-string values are returned unchanged.
func MaskValue(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	return "***" + s
}

// MaskSecrets returns a copy of flat with every secret key masked.
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		if secretKeys[k] {
			v = MaskValue(v)
		}
		out[k] = v
	}
	return out
}
