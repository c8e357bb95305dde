// Package masking redacts personal data before it lands in audit rows.
package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = map[string]bool{
	"email":          true,
	"customer_email": true,
	"password":       true,
	"token":          true,
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	at := strings.Index(trimmed, "@")
	if at <= 0 {
		return maskToken
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// MaskSensitive returns a copy of metadata with known sensitive keys
// redacted. Non-sensitive values pass through untouched.
func MaskSensitive(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if sensitiveKeys[strings.ToLower(trimmedKey)] {
			if text, ok := value.(string); ok {
				if strings.Contains(text, "@") {
					masked[trimmedKey] = MaskEmail(text)
				} else {
					masked[trimmedKey] = maskToken
				}
				continue
			}
			masked[trimmedKey] = maskToken
			continue
		}
		masked[trimmedKey] = value
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}
