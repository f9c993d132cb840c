// Package tools implements the operations exposed to assistants over MCP.
//
// Every tool takes loosely typed arguments, as decoded from a JSON tool call,
// and returns a Result map with a "status" of "success", "error" or
// "placeholder". Tools never return Go errors; failures are reported in the
// result.
package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// Result statuses.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusPlaceholder = "placeholder"
)

// Result is the outcome of a tool call.
type Result map[string]any

// Status returns the result status.
func (r Result) Status() string {
	s, _ := r["status"].(string)
	return s
}

// OK reports whether the tool succeeded.
func (r Result) OK() bool { return r.Status() == StatusSuccess }

// Message returns the error or informational message, if any.
func (r Result) Message() string {
	s, _ := r["message"].(string)
	return s
}

func success(fields map[string]any) Result {
	r := Result{"status": StatusSuccess}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func failure(err error) Result {
	return Result{"status": StatusError, "message": err.Error()}
}

func failuref(format string, args ...any) Result {
	return Result{"status": StatusError, "message": fmt.Sprintf(format, args...)}
}

func placeholder(message string, example map[string]any) Result {
	return Result{"status": StatusPlaceholder, "message": message, "example": example}
}

// Args are the arguments of a tool call.
type Args map[string]any

// String returns a string argument, or "".
func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// StringOr returns a string argument, or def when it is empty.
func (a Args) StringOr(name, def string) string {
	if s := a.String(name); s != "" {
		return s
	}
	return def
}

// Int returns an integer argument, or def when it is missing or invalid.
// JSON numbers arrive as float64.
func (a Args) Int(name string, def int) int {
	switch v := a[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Bool returns a boolean argument; "true" strings count as true.
func (a Args) Bool(name string) bool {
	switch v := a[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// Map returns an object argument, or nil.
func (a Args) Map(name string) map[string]any {
	m, _ := a[name].(map[string]any)
	return m
}

// Strings returns an array argument as strings. A string argument is split
// on commas.
func (a Args) Strings(name string) []string {
	switch v := a[name].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// require returns the named string argument or an error result.
func (a Args) require(name string) (string, Result) {
	s := a.String(name)
	if s == "" {
		return "", failuref("%s is required", name)
	}
	return s, nil
}
