package document

import (
	"strings"
	"testing"
)

func TestMarkdownExtractor_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	o, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", o.Title)
	}
	if len(o.Sections) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(o.Sections))
	}

	h1 := o.Sections[0]
	if h1.Heading != "Title" || h1.Text != "Intro text." {
		t.Errorf("unexpected h1 %q / %q", h1.Heading, h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	secA := h1.Children[0]
	if secA.Heading != "Section A" || secA.Text != "Section A content." {
		t.Errorf("unexpected section A %q / %q", secA.Heading, secA.Text)
	}
	if len(secA.Children) != 1 || secA.Children[0].Heading != "Subsection A1" {
		t.Fatalf("expected Subsection A1 under Section A, got %+v", secA.Children)
	}
	if h1.Children[1].Heading != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", h1.Children[1].Heading)
	}
}

func TestMarkdownExtractor_NoHeadings(t *testing.T) {
	input := "Just some *plain* text.\n\nAnother paragraph here."
	o, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Sections) != 1 {
		t.Fatalf("expected 1 section for headingless markdown, got %d", len(o.Sections))
	}
	want := "Just some plain text.\n\nAnother paragraph here."
	if o.Sections[0].Text != want {
		t.Errorf("expected %q, got %q", want, o.Sections[0].Text)
	}
}

func TestMarkdownExtractor_CodeBlocks(t *testing.T) {
	input := "# API\n\n## Endpoints\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"
	o, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	endpoints := o.Sections[0].Children[0]
	if !strings.Contains(endpoints.Text, "GET /api/users") {
		t.Errorf("expected code block content in text, got %q", endpoints.Text)
	}
	if !strings.Contains(endpoints.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", endpoints.Text)
	}
}

func TestMarkdownExtractor_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"UPPER.MD", "UPPER"},
	}
	for _, tt := range tests {
		o, err := (&MarkdownExtractor{}).Extract(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if o.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, o.Title)
		}
	}
}
