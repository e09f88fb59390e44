package cli

import (
	"regexp"
	"strings"
)

var wsRegexp = regexp.MustCompile(`\s+`)

func compactText(v string, max int) string {
	v = strings.TrimSpace(wsRegexp.ReplaceAllString(v, " "))
	runes := []rune(v)
	if max <= 0 || len(runes) <= max {
		return v
	}
	return string(runes[:max-1]) + "..."
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
