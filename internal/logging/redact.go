// internal/logging/redact.go
package logging

import (
	"strconv"

	"go.uber.org/zap"
)

// RedactedString creates a Zap field with redacted value and length.
// Use for any model-authored string that may echo user content.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// PayloadSize creates a Zap field describing an opaque payload by size
// only, so filters and tool arguments never appear verbatim in logs.
func PayloadSize(key string, payload map[string]any) zap.Field {
	return zap.Int(key+".keys", len(payload))
}
