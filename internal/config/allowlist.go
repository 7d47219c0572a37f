package config

import "strings"

// Wildcard is the allowed_user_ids value that admits every user.
const Wildcard = "*"

// AllowList is the set of user identifiers permitted to use the bot, or the
// wildcard admitting everyone. Identifiers are kept as strings in their
// configured order.
type AllowList struct {
	all bool
	ids []string
}

// ParseAllowList parses a wildcard or a comma-separated list of ids.
// Surrounding whitespace and empty entries are dropped.
func ParseAllowList(raw string) AllowList {
	raw = strings.TrimSpace(raw)
	if raw == Wildcard {
		return AllowList{all: true}
	}

	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return AllowList{ids: ids}
}

// All reports whether the list is the wildcard.
func (a AllowList) All() bool { return a.all }

// IDs returns the configured ids in order. It is empty for the wildcard.
func (a AllowList) IDs() []string { return a.ids }

// Contains reports whether id is literally present in the list.
func (a AllowList) Contains(id string) bool {
	for _, allowed := range a.ids {
		if allowed == id {
			return true
		}
	}
	return false
}
