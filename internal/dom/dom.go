// Package dom is a small toolkit for building and mutating HTML node trees.
//
// Text only ever enters a tree as a text node, and html.Render escapes text
// nodes, so content supplied by users or by the backend cannot inject markup.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr is a name/value pair for Element.
type Attr struct {
	Name, Value string
}

// A builds an Attr.
func A(name, value string) Attr { return Attr{Name: name, Value: value} }

// Element creates a detached element node with the given attributes and
// children.
func Element(tag string, attrs []Attr, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Name, Val: a.Value})
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Div, P and Span are shorthands for the common block elements.
func Div(class string, children ...*html.Node) *html.Node {
	return Element("div", classAttr(class), children...)
}

func P(class, text string) *html.Node {
	return Element("p", classAttr(class), Text(text))
}

func Span(class, text string) *html.Node {
	return Element("span", classAttr(class), Text(text))
}

func classAttr(class string) []Attr {
	if class == "" {
		return nil
	}
	return []Attr{A("class", class)}
}

// GetAttr returns the value of attribute name and whether it is present.
func GetAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces attribute name.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes attribute name if present.
func RemoveAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// ID returns the id attribute.
func ID(n *html.Node) string {
	v, _ := GetAttr(n, "id")
	return v
}

func classes(n *html.Node) []string {
	v, _ := GetAttr(n, "class")
	return strings.Fields(v)
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, have := range classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

// ToggleClass adds or removes c according to on.
func ToggleClass(n *html.Node, c string, on bool) {
	list := classes(n)
	out := list[:0]
	found := false
	for _, have := range list {
		if have == c {
			found = true
			if !on {
				continue
			}
		}
		out = append(out, have)
	}
	if on && !found {
		out = append(out, c)
	}
	if len(out) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

// FlipClass toggles c and returns whether it is now present.
func FlipClass(n *html.Node, c string) bool {
	on := !HasClass(n, c)
	ToggleClass(n, c, on)
	return on
}

// SetStyle sets a single inline style property, keeping the others.
func SetStyle(n *html.Node, prop, value string) {
	raw, _ := GetAttr(n, "style")
	var decls []string
	replaced := false
	for _, d := range strings.Split(raw, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.TrimSpace(name) == prop {
			decls = append(decls, prop+": "+value)
			replaced = true
			continue
		}
		decls = append(decls, d)
	}
	if !replaced {
		decls = append(decls, prop+": "+value)
	}
	SetAttr(n, "style", strings.Join(decls, "; ")+";")
}

// Style returns the value of an inline style property, or "".
func Style(n *html.Node, prop string) string {
	raw, _ := GetAttr(n, "style")
	for _, d := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(d, ":")
		if ok && strings.TrimSpace(name) == prop {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Find returns the first node in document order, n included, for which
// match is true.
func Find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every matching node in document order.
func FindAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ByID matches elements with the given id.
func ByID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && ID(n) == id
	}
}

// ByClass matches elements carrying class c.
func ByClass(c string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasClass(n, c)
	}
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// TakeChildren detaches and returns all children of n.
func TakeChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out
}

// Render serializes n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderChildren serializes the children of n without n itself.
func RenderChildren(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
