package domain

import (
	"encoding/json"
	"strings"
)

// KeywordList decodes either a JSON array of strings or a single
// comma-separated string, which older endpoints return.
type KeywordList []string

// UnmarshalJSON implements json.Unmarshaler
func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = SplitKeywords(strings.Join(list, ","))
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*k = nil
		return nil
	}
	*k = SplitKeywords(*s)
	return nil
}

// SplitKeywords splits a comma-separated list, trimming blanks
func SplitKeywords(s string) KeywordList {
	var out KeywordList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CategoryRule is auto-categorisation configuration owned by the server.
// The client only displays and edits it.
type CategoryRule struct {
	ID           int64       `json:"id"`
	CategoryName string      `json:"category_name"`
	Keywords     KeywordList `json:"keywords"`
	Merchants    KeywordList `json:"merchants"`
	IsCustom     bool        `json:"is_custom"`
}

// Matches reports whether the rule's name, keywords or merchants contain query
func (r CategoryRule) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.CategoryName), q) {
		return true
	}
	for _, s := range append(append([]string{}, r.Keywords...), r.Merchants...) {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// CategoryRuleInput holds the input for creating or editing a rule
type CategoryRuleInput struct {
	CategoryName string   `json:"category_name" validate:"required,max=100"`
	Keywords     []string `json:"keywords"`
	Merchants    []string `json:"merchants"`
}
