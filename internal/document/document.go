// Package document inspects uploads locally before they are sent to the
// question-answering service.
//
// Inspection checks the extension against the supported formats, confirms the
// content agrees with the extension, and extracts the text into an Outline.
// A document that yields no text is rejected, since the service would index
// nothing from it.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// ErrUnsupported is wrapped by rejections for unknown file extensions.
var ErrUnsupported = errors.New("unsupported file type")

// Outline is the extracted text of a document, grouped by headings.
type Outline struct {
	Title    string
	Sections []*Section
}

// Section is a heading with its text and nested subsections. Leaf text
// without a heading has an empty Heading.
type Section struct {
	Heading  string
	Text     string
	Page     int
	Children []*Section
}

// Extractor converts raw document bytes into an Outline.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Outline, error)
}

// Format names a supported document format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

var formats = map[string]Format{
	".txt":      FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".csv":      FormatCSV,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
}

// FormatOf returns the format for filename's extension.
func FormatOf(filename string) (Format, bool) {
	f, ok := formats[strings.ToLower(filepath.Ext(filename))]
	return f, ok
}

// Supported lists the accepted extensions, e.g. for a file input's accept
// attribute.
func Supported() []string {
	return []string{".txt", ".md", ".markdown", ".csv", ".html", ".htm", ".pdf", ".docx"}
}

// ForFile returns the extractor for filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	f, ok := FormatOf(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, strings.ToLower(filepath.Ext(filename)))
	}
	switch f {
	case FormatText:
		return &TextExtractor{}, nil
	case FormatMarkdown:
		return &MarkdownExtractor{}, nil
	case FormatCSV:
		return &CSVExtractor{}, nil
	case FormatHTML:
		return &HTMLExtractor{}, nil
	case FormatPDF:
		return &PDFExtractor{FallbackPdftotext: opts.FallbackPdftotext}, nil
	default:
		return &DOCXExtractor{}, nil
	}
}

// Options controls Inspect.
type Options struct {
	// MaxBytes rejects larger documents; zero means no limit.
	MaxBytes          int64
	FallbackPdftotext bool
}

// RejectError explains why a document was refused. Reason is suitable for
// showing to the person who picked the file.
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *RejectError) Unwrap() error { return e.Err }

// UserMessage returns Reason.
func (e *RejectError) UserMessage() string { return e.Reason }

// Summary describes an accepted document.
type Summary struct {
	Name     string   `json:"name"`
	Format   Format   `json:"format"`
	MIME     string   `json:"mime"`
	Title    string   `json:"title"`
	Bytes    int      `json:"bytes"`
	Sections int      `json:"sections"`
	Words    int      `json:"words"`
	Headings []string `json:"headings,omitempty"`
	Preview  string   `json:"preview"`
}

const (
	maxHeadings = 10
	previewLen  = 160
)

// Inspect validates and extracts name/data. Refusals are *RejectError.
func Inspect(name string, data []byte, opts Options) (*Summary, error) {
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, TooLarge(opts.MaxBytes)
	}
	format, ok := FormatOf(name)
	if !ok {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			ext = "(none)"
		}
		return nil, &RejectError{Reason: "Unsupported file type " + ext, Err: ErrUnsupported}
	}
	kind, _ := filetype.Match(data)
	if !contentMatches(format, kind.MIME.Value, data) {
		return nil, &RejectError{Reason: fmt.Sprintf("File content does not look like %s", format)}
	}

	ex, err := ForFile(name, opts)
	if err != nil {
		return nil, &RejectError{Reason: "Unsupported file type", Err: err}
	}
	outline, err := ex.Extract(bytes.NewReader(data), filepath.Base(name))
	if err != nil {
		return nil, &RejectError{Reason: "Could not read document", Err: err}
	}

	s := summarize(outline)
	if s.Words == 0 {
		return nil, &RejectError{Reason: "No readable text found in " + filepath.Base(name)}
	}
	s.Name = filepath.Base(name)
	s.Format = format
	s.Bytes = len(data)
	s.MIME = kind.MIME.Value
	if s.MIME == "" {
		s.MIME = "text/plain"
	}
	return s, nil
}

// contentMatches reports whether sniffed content agrees with the format.
// Text formats must not carry a binary signature.
func contentMatches(format Format, mime string, data []byte) bool {
	switch format {
	case FormatPDF:
		return mime == matchers.TypePdf.MIME.Value
	case FormatDOCX:
		return mime == matchers.TypeDocx.MIME.Value || mime == matchers.TypeZip.MIME.Value
	default:
		return mime == "" || !filetype.IsImage(data) && !filetype.IsArchive(data) &&
			!filetype.IsVideo(data) && !filetype.IsAudio(data) && !filetype.IsDocument(data)
	}
}

func summarize(o *Outline) *Summary {
	s := &Summary{Title: o.Title}
	var text strings.Builder
	var walk func(secs []*Section, depth int)
	walk = func(secs []*Section, depth int) {
		for _, sec := range secs {
			if sec.Heading != "" {
				s.Sections++
				s.Words += len(strings.Fields(sec.Heading))
				if depth == 0 && len(s.Headings) < maxHeadings {
					s.Headings = append(s.Headings, sec.Heading)
				}
			}
			if sec.Text != "" {
				s.Words += len(strings.Fields(sec.Text))
				if text.Len() < previewLen {
					if text.Len() > 0 {
						text.WriteByte(' ')
					}
					text.WriteString(sec.Text)
				}
			}
			walk(sec.Children, depth+1)
		}
	}
	walk(o.Sections, 0)
	s.Preview = preview(text.String())
	return s
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "…"
}

// TooLarge is the refusal for a file over limit bytes.
func TooLarge(limit int64) *RejectError {
	return &RejectError{Reason: fmt.Sprintf("File is too large (limit %s)", humanize.IBytes(uint64(limit)))}
}

// outlineBuilder nests sections by heading level and accumulates body text
// under the innermost open heading.
type outlineBuilder struct {
	root    Section
	stack   []stackEntry
	pending strings.Builder
}

type stackEntry struct {
	sec   *Section
	level int
}

func newOutlineBuilder() *outlineBuilder {
	b := &outlineBuilder{}
	b.stack = []stackEntry{{sec: &b.root, level: 0}}
	return b
}

func (b *outlineBuilder) heading(level int, title string) {
	b.flush()
	sec := &Section{Heading: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].sec
	parent.Children = append(parent.Children, sec)
	b.stack = append(b.stack, stackEntry{sec: sec, level: level})
}

func (b *outlineBuilder) text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.pending.Len() > 0 {
		b.pending.WriteString("\n\n")
	}
	b.pending.WriteString(t)
}

func (b *outlineBuilder) flush() {
	t := b.pending.String()
	b.pending.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].sec
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// outline finishes the build. Text before any heading becomes a leading
// section without a heading.
func (b *outlineBuilder) outline(title string) *Outline {
	b.flush()
	o := &Outline{Title: title}
	if b.root.Text != "" {
		o.Sections = append(o.Sections, &Section{Text: b.root.Text})
	}
	o.Sections = append(o.Sections, b.root.Children...)
	return o
}

func trimExt(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
