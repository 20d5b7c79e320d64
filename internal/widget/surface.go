package widget

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/faqdesk/internal/document"
	"github.com/dgallion1/faqdesk/internal/dom"
)

// Element ids the controller binds to.
const (
	IDInput     = "chat-input"
	IDSend      = "send-button"
	IDMessages  = "messages"
	IDUpload    = "upload-button"
	IDFileInput = "document-upload"
	IDComposer  = "composer"
)

// ContractError reports a host page that does not provide the controls the
// widget needs.
type ContractError struct {
	Missing  []string
	Problems []string
}

func (e *ContractError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing #"+strings.Join(e.Missing, ", #"))
	}
	parts = append(parts, e.Problems...)
	return "widget page: " + strings.Join(parts, "; ")
}

// Surface is a widget page and the controls bound from it. Its nodes must
// only be touched from the owning controller's loop.
type Surface struct {
	Doc       *html.Node
	Input     *html.Node
	Send      *html.Node
	Messages  *html.Node
	Upload    *html.Node
	FileInput *html.Node
	Composer  *html.Node
}

// ParseSurface parses a host page and binds the widget controls by id.
func ParseSurface(r io.Reader) (*Surface, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse widget page: %w", err)
	}
	return bind(doc)
}

// NewSurface builds the default widget page.
func NewSurface() *Surface {
	accept := strings.Join(document.Supported(), ",")
	body := dom.Element("body", nil,
		dom.Element("div", []dom.Attr{dom.A("class", "chat-container")},
			dom.Element("header", []dom.Attr{dom.A("class", "chat-header")}, dom.Text("Support")),
			dom.Element("div", []dom.Attr{dom.A("id", IDMessages), dom.A("class", "chat-messages")},
				dom.Element("div", []dom.Attr{dom.A("id", IDComposer), dom.A("class", "composer-anchor")}),
			),
			dom.Element("form", []dom.Attr{dom.A("class", "composer"), dom.A("autocomplete", "off")},
				dom.Element("input", []dom.Attr{
					dom.A("id", IDInput), dom.A("type", "text"), dom.A("name", "message"),
					dom.A("placeholder", "Type your message..."), dom.A("value", ""),
				}),
				dom.Element("button", []dom.Attr{dom.A("id", IDUpload), dom.A("type", "button"), dom.A("title", "Upload document")},
					dom.Text("Upload")),
				dom.Element("input", []dom.Attr{
					dom.A("id", IDFileInput), dom.A("type", "file"), dom.A("name", "file"),
					dom.A("accept", accept), dom.A("style", "display: none;"),
				}),
				dom.Element("button", []dom.Attr{dom.A("id", IDSend), dom.A("type", "submit")}, dom.Text("Send")),
			),
		),
		dom.Element("script", []dom.Attr{dom.A("src", "/static/widget.js")}),
	)
	head := dom.Element("head", nil,
		dom.Element("meta", []dom.Attr{dom.A("charset", "utf-8")}),
		dom.Element("meta", []dom.Attr{dom.A("name", "viewport"), dom.A("content", "width=device-width, initial-scale=1")}),
		dom.Element("title", nil, dom.Text("Support")),
		dom.Element("link", []dom.Attr{dom.A("rel", "stylesheet"), dom.A("href", "/static/widget.css")}),
	)
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(dom.Element("html", []dom.Attr{dom.A("lang", "en")}, head, body))

	s, err := bind(doc)
	if err != nil {
		panic("default widget page: " + err.Error())
	}
	return s
}

func bind(doc *html.Node) (*Surface, error) {
	s := &Surface{Doc: doc}
	cerr := &ContractError{}
	lookup := func(id string) *html.Node {
		n := dom.Find(doc, dom.ByID(id))
		if n == nil {
			cerr.Missing = append(cerr.Missing, id)
		}
		return n
	}
	s.Input = lookup(IDInput)
	s.Send = lookup(IDSend)
	s.Messages = lookup(IDMessages)
	s.Upload = lookup(IDUpload)
	s.FileInput = lookup(IDFileInput)
	s.Composer = lookup(IDComposer)

	if s.Input != nil && s.Input.Data != "input" && s.Input.Data != "textarea" {
		cerr.Problems = append(cerr.Problems, "#"+IDInput+" must be an input or textarea")
	}
	if s.FileInput != nil {
		if typ, _ := dom.GetAttr(s.FileInput, "type"); s.FileInput.Data != "input" || typ != "file" {
			cerr.Problems = append(cerr.Problems, "#"+IDFileInput+" must be a file input")
		}
	}
	if s.Messages != nil && s.Composer != nil && s.Composer.Parent != s.Messages {
		cerr.Problems = append(cerr.Problems, "#"+IDComposer+" must be a child of #"+IDMessages)
	}
	if len(cerr.Missing) > 0 || len(cerr.Problems) > 0 {
		return nil, cerr
	}
	return s, nil
}

// InputValue returns the text input's current value.
func (s *Surface) InputValue() string {
	if s.Input.Data == "textarea" {
		return dom.TextContent(s.Input)
	}
	v, _ := dom.GetAttr(s.Input, "value")
	return v
}

// SetInputValue replaces the text input's value.
func (s *Surface) SetInputValue(v string) {
	if s.Input.Data == "textarea" {
		dom.TakeChildren(s.Input)
		if v != "" {
			s.Input.AppendChild(dom.Text(v))
		}
		return
	}
	dom.SetAttr(s.Input, "value", v)
}

// SelectedFile is the name shown by the file input, empty when cleared.
func (s *Surface) SelectedFile() string {
	v, _ := dom.GetAttr(s.FileInput, "data-selected")
	return v
}

func (s *Surface) setSelectedFile(name string) {
	if name == "" {
		dom.RemoveAttr(s.FileInput, "data-selected")
		return
	}
	dom.SetAttr(s.FileInput, "data-selected", name)
}

// insert places n immediately before the composer anchor.
func (s *Surface) insert(n *html.Node) {
	s.Messages.InsertBefore(n, s.Composer)
}

func setDisabled(n *html.Node, on bool) {
	if on {
		dom.SetAttr(n, "disabled", "")
	} else {
		dom.RemoveAttr(n, "disabled")
	}
}

func disabled(n *html.Node) bool {
	_, ok := dom.GetAttr(n, "disabled")
	return ok
}
