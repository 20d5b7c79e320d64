package reply

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestClassify_StructuredFAQ(t *testing.T) {
	var payload any
	if err := json.Unmarshal([]byte(`[{"question":"Q1","answer":"A1"}]`), &payload); err != nil {
		t.Fatal(err)
	}
	r := Classify(payload)
	if r.Kind != KindFAQ {
		t.Fatalf("expected faq, got %s", r.Kind)
	}
	want := []Entry{{Question: "Q1", Answer: "A1"}}
	if !reflect.DeepEqual(r.Entries, want) {
		t.Errorf("expected %v, got %v", want, r.Entries)
	}
}

func TestClassify_PlainString(t *testing.T) {
	r := Classify("Hello")
	if r.Kind != KindText {
		t.Fatalf("expected text, got %s", r.Kind)
	}
	if r.Text != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", r.Text)
	}
}

func TestClassify_StringEncodedFAQ(t *testing.T) {
	r := Classify(`[{"question":"Q","answer":"A"}]`)
	if r.Kind != KindFAQ {
		t.Fatalf("expected faq, got %s", r.Kind)
	}
	if len(r.Entries) != 1 || r.Entries[0].Question != "Q" || r.Entries[0].Answer != "A" {
		t.Errorf("unexpected entries %v", r.Entries)
	}
}

func TestClassify_RawMessageShapes(t *testing.T) {
	faq := Classify(json.RawMessage(`[{"question":"Q","answer":"A"},{"question":"Q2","answer":"A2"}]`))
	if faq.Kind != KindFAQ || len(faq.Entries) != 2 {
		t.Fatalf("expected 2-entry faq, got %s with %d entries", faq.Kind, len(faq.Entries))
	}

	// A JSON string holding a JSON array is still an FAQ list.
	double := Classify(json.RawMessage(`"[{\"question\":\"Q\",\"answer\":\"A\"}]"`))
	if double.Kind != KindFAQ {
		t.Fatalf("expected double-encoded faq, got %s", double.Kind)
	}

	text := Classify(json.RawMessage(`"I couldn't find any answers to your question."`))
	if text.Kind != KindText || text.Text != "I couldn't find any answers to your question." {
		t.Errorf("unexpected text reply %+v", text)
	}
}

func TestClassify_FirstElementDecides(t *testing.T) {
	cases := map[string]string{
		"empty array":      `[]`,
		"missing answer":   `[{"question":"Q"}]`,
		"empty question":   `[{"question":"","answer":"A"}]`,
		"not an object":    `["Q","A"]`,
		"object not array": `{"question":"Q","answer":"A"}`,
		"broken json":      `[{"question":"Q",`,
	}
	for name, s := range cases {
		if r := Classify(s); r.Kind != KindText {
			t.Errorf("%s: expected text, got %s", name, r.Kind)
		} else if r.Text != s {
			t.Errorf("%s: expected text preserved, got %q", name, r.Text)
		}
	}
}

func TestClassify_LaterMalformedEntriesTolerated(t *testing.T) {
	r := Classify(`[{"question":"Q","answer":"A"},{"question":"only"},"junk",{"question":"N","answer":3}]`)
	if r.Kind != KindFAQ {
		t.Fatalf("expected faq, got %s", r.Kind)
	}
	want := []Entry{
		{Question: "Q", Answer: "A"},
		{Question: "only", Answer: ""},
		{Question: "N", Answer: "3"},
	}
	if !reflect.DeepEqual(r.Entries, want) {
		t.Errorf("expected %v, got %v", want, r.Entries)
	}
}

func TestClassify_StructuredNonFAQRendersJSON(t *testing.T) {
	r := Classify(map[string]any{"detail": "x"})
	if r.Kind != KindText || r.Text != `{"detail":"x"}` {
		t.Errorf("unexpected reply %+v", r)
	}
}

func TestClassify_EntrySlice(t *testing.T) {
	r := Classify([]Entry{{Question: "Q", Answer: "A"}})
	if r.Kind != KindFAQ {
		t.Fatalf("expected faq, got %s", r.Kind)
	}
	if r := Classify([]Entry{}); r.Kind != KindText {
		t.Errorf("expected empty entry slice to be text, got %s", r.Kind)
	}
}

func TestIsEmpty(t *testing.T) {
	empty := []string{``, `null`, `""`, `false`, `0`, "  "}
	for _, s := range empty {
		if !IsEmpty(json.RawMessage(s)) {
			t.Errorf("expected %q to be empty", s)
		}
	}
	present := []string{`"hi"`, `[]`, `{}`, `1`, `true`, `[{"question":"Q","answer":"A"}]`}
	for _, s := range present {
		if IsEmpty(json.RawMessage(s)) {
			t.Errorf("expected %q to be present", s)
		}
	}
}

func TestFormatAnswer_ParagraphBreak(t *testing.T) {
	got := FormatAnswer("Para1\n\nPara2")
	want := []string{"Para1", "Para2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatAnswer_SingleNewlineBecomesSpace(t *testing.T) {
	got := FormatAnswer("Line1\nLine2")
	want := []string{"Line1 Line2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatAnswer_WhitespaceBlankLines(t *testing.T) {
	got := FormatAnswer("One\n  \n\n\nTwo\nstill two\n \t\nThree")
	want := []string{"One", "Two still two", "Three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
