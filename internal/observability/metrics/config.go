package metrics

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Config labels exported metrics with the service identity.
type Config struct {
	ServiceName string
	Environment string
}

var sensitiveLabelKeys = []string{
	"phone",
	"email",
	"token",
	"authorization",
}

// FilterAttributes drops attributes whose keys would leak customer data.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isSensitiveLabel(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func isSensitiveLabel(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveLabelKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}
