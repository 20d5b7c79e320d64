// Package reply interprets the payload returned by the ask endpoint.
//
// A payload is either plain text or an FAQ list: an ordered sequence of
// question/answer pairs. Strings are given a chance to parse as JSON first,
// because the backend often returns the model's JSON output verbatim inside
// a string field.
package reply

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes the two reply shapes.
type Kind int

const (
	KindText Kind = iota
	KindFAQ
)

func (k Kind) String() string {
	switch k {
	case KindFAQ:
		return "faq"
	default:
		return "text"
	}
}

// Entry is one question/answer pair of an FAQ list.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Reply is a classified payload.
type Reply struct {
	Kind    Kind
	Text    string
	Entries []Entry
}

// Classify decides whether payload is an FAQ list or plain text.
//
// Accepted payload types are string, []byte, json.RawMessage, []Entry and
// anything produced by encoding/json decoding into an interface value.
// A value is an FAQ list when it is a non-empty array whose first element
// carries both a question and an answer. Anything else is text; structured
// non-FAQ values are rendered as compact JSON.
func Classify(payload any) Reply {
	switch v := payload.(type) {
	case nil:
		return Reply{Kind: KindText}
	case string:
		return classifyString(v)
	case []byte:
		return classifyRaw(v)
	case json.RawMessage:
		return classifyRaw(v)
	case []Entry:
		if len(v) > 0 && v[0].Question != "" && v[0].Answer != "" {
			return Reply{Kind: KindFAQ, Entries: v}
		}
		return Reply{Kind: KindText, Text: compactJSON(v)}
	default:
		if entries, ok := asEntries(v); ok {
			return Reply{Kind: KindFAQ, Entries: entries}
		}
		return Reply{Kind: KindText, Text: compactJSON(v)}
	}
}

// classifyString parses s as JSON. A parse failure is not an error: the
// string is simply text.
func classifyString(s string) Reply {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		if entries, ok := asEntries(v); ok {
			return Reply{Kind: KindFAQ, Entries: entries}
		}
	}
	return Reply{Kind: KindText, Text: s}
}

// classifyRaw handles an undecoded JSON value. A JSON string goes through
// the string path so double-encoded FAQ lists are still recognized.
func classifyRaw(raw []byte) Reply {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Reply{Kind: KindText, Text: string(raw)}
	}
	if s, ok := v.(string); ok {
		return classifyString(s)
	}
	if v == nil {
		return Reply{Kind: KindText}
	}
	if entries, ok := asEntries(v); ok {
		return Reply{Kind: KindFAQ, Entries: entries}
	}
	return Reply{Kind: KindText, Text: compactJSON(v)}
}

func asEntries(v any) ([]Entry, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	first, ok := items[0].(map[string]any)
	if !ok || !truthy(first["question"]) || !truthy(first["answer"]) {
		return nil, false
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Question: stringify(m["question"]),
			Answer:   stringify(m["answer"]),
		})
	}
	return entries, true
}

// IsEmpty reports whether a raw response value should be treated as
// missing: absent, null, false, zero, or an empty string.
func IsEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	return !truthy(v)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return compactJSON(x)
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// FormatAnswer splits an answer into paragraphs. A blank line (possibly
// holding whitespace) separates paragraphs; any other newline becomes a space.
func FormatAnswer(answer string) []string {
	parts := paragraphBreak.Split(answer, -1)
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "\n", " ")
	}
	return parts
}
