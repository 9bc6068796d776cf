package utils

import (
	"fmt"
	"strings"
)

// UrlQuery escapes a query string for use in a URL query component.
func UrlQuery(s string) string { return strings.ReplaceAll(s, " ", "+") }

// Str renders any value as a string, empty for nil.
func Str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
