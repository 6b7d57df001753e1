package logger

import (
	"log/slog"
	"strings"
)

// Credential value prefixes that are partially masked.
var sensitiveValuePrefixes = []string{
	"sk-", // OpenAI-style API key
}

// Key fragments that mark a credential.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"authorization",
	"bearer",
}

// Applicant fields that never reach a log line.
var piiKeys = map[string]struct{}{
	"nationalid":    {},
	"national_id":   {},
	"phone":         {},
	"email":         {},
	"dateofbirth":   {},
	"date_of_birth": {},
	"address":       {},
}

const redactedValue = "***REDACTED***"

// redactSensitive masks credential and PII attributes.
func redactSensitive(a slog.Attr) slog.Attr {
	// Prefix masking takes priority over key-based detection.
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(strVal, prefix) {
				return slog.String(a.Key, maskValue(strVal, prefix))
			}
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskValue keeps prefix, the first and the last 3 characters.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks value if it looks like a credential.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	return value
}

// IsSensitiveKey reports whether an attribute key names a credential or
// applicant PII.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if _, ok := piiKeys[keyLower]; ok {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
