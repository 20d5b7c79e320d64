package document

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor splits plain text into paragraphs on blank lines.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (*Outline, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	o := &Outline{Title: trimExt(filename, ".txt")}
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			o.Sections = append(o.Sections, &Section{Text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return o, nil
}
