// Package widget implements the chat widget: a DOM surface, the controller
// that reacts to UI events on it, and the loop that serializes them.
package widget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/dgallion1/faqdesk/internal/backend"
	"github.com/dgallion1/faqdesk/internal/dom"
	"github.com/dgallion1/faqdesk/internal/reply"
)

var (
	// ErrBusy is returned when a control is disabled by an outstanding request.
	ErrBusy = errors.New("request already in flight")
	// ErrNotFound is returned for an unknown FAQ item id.
	ErrNotFound = errors.New("not found")
)

// Messages shown by the controller.
const (
	MsgAskFailed     = "Sorry, I encountered an error. Please try again."
	MsgEmptyResponse = "Sorry, I encountered an error processing your request."
	MsgUploadFailed  = "Failed to load document"
)

// Backend is the question-answering service as the controller sees it.
type Backend interface {
	Ask(ctx context.Context, message string) (json.RawMessage, error)
	LoadDocument(ctx context.Context, f backend.File) (string, error)
}

// File is a document picked in the file input.
type File = backend.File

// Preflight vets a document before upload. A non-nil error rejects it; an
// error with a UserMessage method supplies the text shown to the user.
type Preflight func(name string, data []byte) error

// Sender identifies who a message is from.
type Sender int

const (
	SenderUser Sender = iota
	SenderBot
)

// Message is one chat message to render. Bot content may be any reply
// payload accepted by reply.Classify.
type Message struct {
	Sender  Sender
	Content any
}

// Key is a key press in the text input.
type Key struct {
	Name  string
	Shift bool
}

// Control names a clickable control.
type Control int

const (
	ControlSend Control = iota
	ControlUpload
)

// View is a rendered snapshot of the widget's dynamic parts.
type View struct {
	HTML      string `json:"html"`
	Upload    string `json:"upload"`
	Input     string `json:"input"`
	Scroll    string `json:"scroll,omitempty"`
	Sending   bool   `json:"sending"`
	Uploading bool   `json:"uploading"`
	Version   uint64 `json:"version"`
}

// Options configures a Controller.
type Options struct {
	Logger    *slog.Logger
	Preflight Preflight
	// QueueSize bounds pending loop tasks.
	QueueSize int
}

// Controller owns a surface and drives it in response to UI events.
//
// Fields below loop are only touched from loop tasks.
type Controller struct {
	backend   Backend
	preflight Preflight
	log       *slog.Logger
	loop      *Loop

	surface       *Surface
	sending       bool
	uploading     bool
	typing        *html.Node
	uploadContent []*html.Node
	faq           map[string]*faqItem
	scroll        string
	version       uint64

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewController binds a controller to s and starts its loop. Call Close to
// stop it.
func NewController(s *Surface, b Backend, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		backend:   b,
		preflight: opts.Preflight,
		log:       log,
		loop:      NewLoop(opts.QueueSize, log),
		surface:   s,
		faq:       make(map[string]*faqItem),
		subs:      make(map[int]chan struct{}),
	}
	c.loop.Start()
	return c
}

// Close stops the loop. Flows still waiting on the backend finish their
// request but can no longer touch the page.
func (c *Controller) Close() {
	c.loop.Stop()
	c.subMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subMu.Unlock()
}

// Subscribe returns a channel that receives a value after each change to
// the page. Notifications coalesce; read View for the current state.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()
	return ch, func() {
		c.subMu.Lock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
		c.subMu.Unlock()
	}
}

func (c *Controller) changed() {
	c.version++
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Type replaces the text input's value.
func (c *Controller) Type(ctx context.Context, text string) error {
	return c.loop.Do(ctx, func() {
		c.surface.SetInputValue(text)
	})
}

// KeyPress handles a key in the text input. Enter without Shift sends.
func (c *Controller) KeyPress(ctx context.Context, k Key) error {
	if k.Name != "Enter" || k.Shift {
		return nil
	}
	return c.SendMessage(ctx)
}

// Click handles a click on a control. The upload control only opens the
// file picker, which happens on the client; the flow starts at SelectFile.
func (c *Controller) Click(ctx context.Context, ctl Control) error {
	switch ctl {
	case ControlSend:
		return c.SendMessage(ctx)
	case ControlUpload:
		var busy bool
		if err := c.loop.Do(ctx, func() { busy = c.uploading }); err != nil {
			return err
		}
		if busy {
			return ErrBusy
		}
		return nil
	default:
		return fmt.Errorf("unknown control %d", ctl)
	}
}

// SendMessage sends the input's trimmed text to the ask endpoint and renders
// the reply. Empty input is ignored. While a send is outstanding the send
// control is disabled and further sends return ErrBusy without touching the
// page.
func (c *Controller) SendMessage(ctx context.Context) error {
	return c.send(ctx, nil)
}

// Submit types text into the input and sends it. A busy send leaves the
// input as it was.
func (c *Controller) Submit(ctx context.Context, text string) error {
	return c.send(ctx, &text)
}

func (c *Controller) send(ctx context.Context, typed *string) error {
	var text string
	var busy bool
	err := c.loop.Do(ctx, func() {
		if c.sending {
			busy = true
			return
		}
		if typed != nil {
			c.surface.SetInputValue(*typed)
		}
		text = strings.TrimSpace(c.surface.InputValue())
		if text == "" {
			return
		}
		c.sending = true
		setDisabled(c.surface.Send, true)
		c.appendBlock(userBlock(text))
		c.surface.SetInputValue("")
		c.typing = typingBlock()
		c.appendBlock(c.typing)
		c.changed()
	})
	if err != nil {
		return err
	}
	if busy {
		return ErrBusy
	}
	if text == "" {
		return nil
	}

	// Once issued, a request always runs to completion and its cleanup.
	ctx = context.WithoutCancel(ctx)
	raw, askErr := c.backend.Ask(ctx, text)

	return c.loop.Do(ctx, func() {
		c.removeTyping()
		c.sending = false
		setDisabled(c.surface.Send, false)

		switch {
		case askErr != nil:
			c.log.Error("ask failed", "error", askErr)
			c.appendBlock(botTextBlock(MsgAskFailed))
		case reply.IsEmpty(raw):
			c.log.Warn("ask returned empty response")
			c.appendBlock(botTextBlock(MsgEmptyResponse))
		default:
			c.renderReply(reply.Classify(raw))
		}
		c.changed()
	})
}

// SelectFile handles a change of the file input. A nil file or one without
// a name means the selection was cancelled.
func (c *Controller) SelectFile(ctx context.Context, f *File) error {
	if f == nil || f.Name == "" {
		return nil
	}
	return c.UploadFile(ctx, f)
}

// UploadFile sends f to the load endpoint. The upload control shows a
// spinner and is disabled until the request settles, after which it is
// always restored and the file selection cleared.
func (c *Controller) UploadFile(ctx context.Context, f *File) error {
	if f == nil || f.Name == "" {
		return nil
	}
	var busy bool
	err := c.loop.Do(ctx, func() {
		if c.uploading {
			busy = true
			return
		}
		c.uploading = true
		c.surface.setSelectedFile(f.Name)
		c.uploadContent = dom.TakeChildren(c.surface.Upload)
		c.surface.Upload.AppendChild(spinner())
		setDisabled(c.surface.Upload, true)
		c.changed()
	})
	if err != nil {
		return err
	}
	if busy {
		return ErrBusy
	}

	ctx = context.WithoutCancel(ctx)
	log := c.log.With("file", f.Name, "bytes", len(f.Data))

	var failure string
	if c.preflight != nil {
		if err := c.preflight(f.Name, f.Data); err != nil {
			log.Warn("upload rejected", "error", err)
			failure = userMessage(err)
		}
	}
	if failure == "" {
		if _, err := c.backend.LoadDocument(ctx, *f); err != nil {
			log.Error("upload failed", "error", err)
			failure = userMessage(err)
		} else {
			log.Info("document loaded")
		}
	}

	return c.loop.Do(ctx, func() {
		if failure != "" {
			c.appendBlock(botTextBlock("Error: " + failure))
		} else {
			c.appendBlock(botTextBlock(`Document "` + f.Name + `" loaded successfully!`))
		}
		c.surface.setSelectedFile("")
		dom.TakeChildren(c.surface.Upload)
		for _, n := range c.uploadContent {
			c.surface.Upload.AppendChild(n)
		}
		c.uploadContent = nil
		setDisabled(c.surface.Upload, false)
		c.uploading = false
		c.changed()
	})
}

// RejectUpload reports a file that never reached UploadFile, such as one
// refused by the host before its content could be read.
func (c *Controller) RejectUpload(ctx context.Context, reason error) error {
	var busy bool
	err := c.loop.Do(ctx, func() {
		if c.uploading {
			busy = true
			return
		}
		c.appendBlock(botTextBlock("Error: " + userMessage(reason)))
		c.surface.setSelectedFile("")
		c.changed()
	})
	if err != nil {
		return err
	}
	if busy {
		return ErrBusy
	}
	c.log.Warn("upload rejected", "error", reason)
	return nil
}

// userMessage extracts display text from err, falling back to the default
// upload failure text.
func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	return MsgUploadFailed
}

// Render appends m to the message list.
func (c *Controller) Render(ctx context.Context, m Message) error {
	return c.loop.Do(ctx, func() {
		if m.Sender == SenderUser {
			text, ok := m.Content.(string)
			if !ok {
				text = fmt.Sprint(m.Content)
			}
			c.appendBlock(userBlock(text))
		} else {
			c.renderReply(reply.Classify(m.Content))
		}
		c.changed()
	})
}

func (c *Controller) renderReply(r reply.Reply) {
	if r.Kind != reply.KindFAQ {
		c.appendBlock(botTextBlock(r.Text))
		return
	}
	n, items := faqBlock(r.Entries)
	for id, it := range items {
		c.faq[id] = it
	}
	c.appendBlock(n)
}

// ToggleFAQ opens or closes one FAQ item. It returns whether the item is
// now open.
func (c *Controller) ToggleFAQ(ctx context.Context, itemID string) (bool, error) {
	var open, found bool
	err := c.loop.Do(ctx, func() {
		it, ok := c.faq[itemID]
		if !ok {
			return
		}
		found = true
		open = it.toggle()
		c.changed()
	})
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("faq item %q: %w", itemID, ErrNotFound)
	}
	return open, nil
}

func (c *Controller) appendBlock(n *html.Node) {
	c.surface.insert(n)
	c.scroll = dom.ID(n)
}

func (c *Controller) removeTyping() {
	if c.typing == nil {
		return
	}
	dom.Detach(c.typing)
	c.typing = nil
}

// View renders the message list and control state.
func (c *Controller) View(ctx context.Context) (View, error) {
	var v View
	var rerr error
	err := c.loop.Do(ctx, func() {
		v.HTML, rerr = dom.RenderChildren(c.surface.Messages)
		if rerr != nil {
			return
		}
		v.Upload, rerr = dom.RenderChildren(c.surface.Upload)
		v.Input = c.surface.InputValue()
		v.Scroll = c.scroll
		v.Sending = c.sending
		v.Uploading = c.uploading
		v.Version = c.version
	})
	if err != nil {
		return View{}, err
	}
	if rerr != nil {
		return View{}, fmt.Errorf("render view: %w", rerr)
	}
	return v, nil
}

// Page renders the whole page.
func (c *Controller) Page(ctx context.Context) (string, error) {
	var page string
	var rerr error
	err := c.loop.Do(ctx, func() {
		page, rerr = dom.Render(c.surface.Doc)
	})
	if err != nil {
		return "", err
	}
	if rerr != nil {
		return "", fmt.Errorf("render page: %w", rerr)
	}
	return page, nil
}

// Inspect runs fn on the loop with read access to the surface.
func (c *Controller) Inspect(ctx context.Context, fn func(*Surface)) error {
	return c.loop.Do(ctx, func() { fn(c.surface) })
}
