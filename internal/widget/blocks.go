package widget

import (
	"golang.org/x/net/html"

	"github.com/dgallion1/faqdesk/internal/dom"
	"github.com/dgallion1/faqdesk/internal/ident"
	"github.com/dgallion1/faqdesk/internal/reply"
)

// Labels shown above each block.
const (
	labelUser = "User"
	labelBot  = "Support"
)

// Class names the client stylesheet and tests rely on.
const (
	classMessage    = "message"
	classUser       = "user-message"
	classBot        = "bot-message"
	classFAQMessage = "faq-message"
	classTyping     = "typing-indicator"
	classFAQItem    = "faq-item"
	classQuestion   = "faq-question"
	classAnswer     = "faq-answer"
	classChevron    = "faq-chevron"
	classActive     = "active"
	classRotated    = "rotated"
)

func block(classes string, avatarFirst bool, avatar string, body ...*html.Node) *html.Node {
	id := ident.WithPrefix("msg")
	av := dom.Div("avatar " + avatar)
	content := dom.Div("message-body", body...)
	if avatarFirst {
		return dom.Element("div", []dom.Attr{dom.A("id", id), dom.A("class", classes)}, av, content)
	}
	return dom.Element("div", []dom.Attr{dom.A("id", id), dom.A("class", classes)}, content, av)
}

func userBlock(text string) *html.Node {
	return block(classMessage+" "+classUser, false, "user-avatar",
		dom.P("sender", labelUser),
		dom.P("bubble", text),
	)
}

func botTextBlock(text string) *html.Node {
	return block(classMessage+" "+classBot, true, "bot-avatar",
		dom.P("sender", labelBot),
		dom.P("bubble", text),
	)
}

func typingBlock() *html.Node {
	dots := dom.Div("typing-dots",
		dom.Element("span", []dom.Attr{dom.A("class", "dot")}),
		dom.Element("span", []dom.Attr{dom.A("class", "dot"), dom.A("style", "animation-delay: 0.2s;")}),
		dom.Element("span", []dom.Attr{dom.A("class", "dot"), dom.A("style", "animation-delay: 0.4s;")}),
	)
	return block(classMessage+" "+classBot+" "+classTyping, true, "bot-avatar",
		dom.P("sender", labelBot),
		dots,
	)
}

// faqItem holds the nodes one accordion toggle touches.
type faqItem struct {
	item    *html.Node
	answer  *html.Node
	chevron *html.Node
}

func (f *faqItem) toggle() bool {
	open := dom.FlipClass(f.item, classActive)
	if open {
		dom.SetStyle(f.answer, "display", "block")
	} else {
		dom.SetStyle(f.answer, "display", "none")
	}
	dom.ToggleClass(f.chevron, classRotated, open)
	return open
}

// faqBlock renders entries as collapsed accordion items and returns them
// keyed by item id.
func faqBlock(entries []reply.Entry) (*html.Node, map[string]*faqItem) {
	items := make(map[string]*faqItem, len(entries))
	list := dom.Div("faq-list")
	for _, e := range entries {
		id := ident.WithPrefix("faq")

		chevron := dom.Element("svg", []dom.Attr{
			dom.A("class", classChevron), dom.A("width", "16"), dom.A("height", "16"),
			dom.A("viewBox", "0 0 24 24"), dom.A("fill", "none"), dom.A("stroke", "currentColor"),
			dom.A("stroke-width", "2"), dom.A("stroke-linecap", "round"), dom.A("stroke-linejoin", "round"),
		}, dom.Element("polyline", []dom.Attr{dom.A("points", "6 9 12 15 18 9")}))

		question := dom.Element("div", []dom.Attr{
			dom.A("class", classQuestion), dom.A("data-faq", id), dom.A("role", "button"),
		}, dom.Span("truncate", e.Question), chevron)

		answer := dom.Element("div", []dom.Attr{
			dom.A("class", classAnswer), dom.A("style", "display: none;"),
		}, answerSpan(e.Answer))

		item := dom.Element("div", []dom.Attr{dom.A("id", id), dom.A("class", classFAQItem)}, question, answer)
		list.AppendChild(item)
		items[id] = &faqItem{item: item, answer: answer, chevron: chevron}
	}
	n := block(classMessage+" "+classBot+" "+classFAQMessage, true, "bot-avatar",
		dom.P("sender", labelBot),
		list,
	)
	return n, items
}

// answerSpan separates paragraphs with a blank line's worth of breaks.
func answerSpan(answer string) *html.Node {
	span := dom.Element("span", nil)
	for i, para := range reply.FormatAnswer(answer) {
		if i > 0 {
			span.AppendChild(dom.Element("br", nil))
			span.AppendChild(dom.Element("br", nil))
		}
		span.AppendChild(dom.Text(para))
	}
	return span
}

func spinner() *html.Node {
	return dom.Element("svg", []dom.Attr{
		dom.A("class", "spinner"), dom.A("xmlns", "http://www.w3.org/2000/svg"),
		dom.A("fill", "none"), dom.A("viewBox", "0 0 24 24"), dom.A("aria-label", "Uploading"),
	},
		dom.Element("circle", []dom.Attr{
			dom.A("class", "spinner-track"), dom.A("cx", "12"), dom.A("cy", "12"), dom.A("r", "10"),
			dom.A("stroke", "currentColor"), dom.A("stroke-width", "4"),
		}),
		dom.Element("path", []dom.Attr{
			dom.A("class", "spinner-head"), dom.A("fill", "currentColor"),
			dom.A("d", "M4 12a8 8 0 018-8V0C5.373 0 0 5.373 0 12h4z"),
		}),
	)
}
