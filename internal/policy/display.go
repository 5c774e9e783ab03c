package policy

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"engine/internal/domain"
)

// DisplayName renders a class for humans, e.g. charlie_chat_pro -> "Charlie Chat Pro".
func DisplayName(class domain.UserClass) string {
	raw := strings.TrimSpace(string(class))
	if raw == "" {
		return "Guest"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(raw, "_", " "))
}
