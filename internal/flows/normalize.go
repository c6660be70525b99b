package flows

import (
	"encoding/json"
	"fmt"
	"strings"
)

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// locPrefixes are request-part markers dropped from the front of a field
// location.
var locPrefixes = map[string]struct{}{
	"body":   {},
	"query":  {},
	"path":   {},
	"header": {},
	"cookie": {},
}

// GenericFailure is the message used when the body carries no usable detail.
func GenericFailure(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

// NormalizeError turns a backend error body into one readable line.
//
//	{"detail": [{"loc": ["body","email"], "msg": "invalid"}]} -> "email: invalid"
//	{"detail": "Not found"}                                  -> "Not found"
//
// Anything else yields GenericFailure(status).
func NormalizeError(status int, body []byte) string {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil || len(eb.Detail) == 0 {
		return GenericFailure(status)
	}

	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err == nil {
		if strings.TrimSpace(detail) == "" {
			return GenericFailure(status)
		}
		return detail
	}

	var fields []fieldError
	if err := json.Unmarshal(eb.Detail, &fields); err != nil {
		return GenericFailure(status)
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Msg == "" {
			continue
		}
		if name := fieldName(f.Loc); name != "" {
			parts = append(parts, name+": "+f.Msg)
		} else {
			parts = append(parts, f.Msg)
		}
	}
	if len(parts) == 0 {
		return GenericFailure(status)
	}
	return strings.Join(parts, ", ")
}

func fieldName(loc []any) string {
	segs := make([]string, 0, len(loc))
	for i, el := range loc {
		var s string
		switch v := el.(type) {
		case string:
			s = v
		case float64:
			s = fmt.Sprintf("%d", int64(v))
		default:
			continue
		}
		if i == 0 {
			if _, ok := locPrefixes[s]; ok && len(loc) > 1 {
				continue
			}
		}
		segs = append(segs, s)
	}
	return strings.Join(segs, ".")
}
