package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
)

// errorBody is the API's error envelope. detail is either a message or a
// list of field errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// parseDetail extracts a readable message and any field errors from body
func parseDetail(body []byte) (string, []domain.FieldError) {
	var env errorBody
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return strings.TrimSpace(string(body)), nil
	}

	var msg string
	if err := json.Unmarshal(env.Detail, &msg); err == nil {
		return msg, nil
	}

	var items []fieldDetail
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		fields := make([]domain.FieldError, 0, len(items))
		parts := make([]string, 0, len(items))
		for _, item := range items {
			field := fieldName(item.Loc)
			fields = append(fields, domain.FieldError{Field: field, Message: item.Msg})
			parts = append(parts, field+": "+item.Msg)
		}
		return strings.Join(parts, "; "), fields
	}

	return string(env.Detail), nil
}

// fieldName drops the leading "body"/"query" location segment
func fieldName(loc []interface{}) string {
	parts := make([]string, 0, len(loc))
	for i, seg := range loc {
		s := fmt.Sprint(seg)
		if i == 0 && (s == "body" || s == "query" || s == "path") && len(loc) > 1 {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

// mapStatus converts a non-2xx response into the matching error kind
func mapStatus(status int, body []byte) error {
	detail, fields := parseDetail(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &domain.APIError{Kind: domain.ErrAuth, Status: status, Detail: detail}
	case status == http.StatusConflict:
		return &domain.APIError{Kind: domain.ErrConflict, Status: status, Detail: detail}
	case status == http.StatusBadRequest && isDuplicate(detail):
		return &domain.APIError{Kind: domain.ErrConflict, Status: status, Detail: detail}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &domain.ValidationError{Fields: fields, Detail: detail}
	case status == http.StatusNotFound:
		return &domain.APIError{Kind: domain.ErrNotFound, Status: status, Detail: detail}
	default:
		return &domain.APIError{Kind: domain.ErrNetwork, Status: status, Detail: detail}
	}
}

func isDuplicate(detail string) bool {
	d := strings.ToLower(detail)
	return strings.Contains(d, "already exists") || strings.Contains(d, "already registered")
}
