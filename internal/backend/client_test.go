package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAsk_PostsMessageAndReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ask" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["message"] != "hi" {
			t.Errorf("expected message hi, got %q", body["message"])
		}
		w.Write([]byte(`{"response":[{"question":"Q","answer":"A"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", Options{APIKey: "secret"})
	raw, err := c.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if string(raw) != `[{"question":"Q","answer":"A"}]` {
		t.Errorf("unexpected response %s", raw)
	}
}

func TestAsk_MissingResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	raw, err := NewClient(srv.URL, Options{}).Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil response, got %s", raw)
	}
}

func TestAsk_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"response":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Options{})
	_, err := c.Ask(context.Background(), "hi")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Endpoint != EndpointAsk {
		t.Errorf("unexpected status error %+v", se)
	}
	if snap := c.Stats().Snapshot()[EndpointAsk]; snap.Count != 1 || snap.Failures != 1 {
		t.Errorf("expected one failed sample, got %+v", snap)
	}
}

func TestAsk_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, Options{Timeout: 50 * time.Millisecond})
	if _, err := c.Ask(context.Background(), "hi"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestLoadDocument_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/load_faiss" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "faq.txt" || string(data) != "hello" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, data)
		}
		if ct := hdr.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("unexpected part content type %q", ct)
		}
		w.Write([]byte(`{"message":"File loaded successfully"}`))
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL, Options{}).LoadDocument(context.Background(), File{Name: "faq.txt", Data: []byte("hello")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if msg != "File loaded successfully" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestLoadDocument_ServerMessageOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad file"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, Options{}).LoadDocument(context.Background(), File{Name: "x.pdf", Data: []byte("%PDF-1.4")})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.UserMessage() != "bad file" {
		t.Errorf("expected server message, got %q", se.UserMessage())
	}
}

func TestLoadDocument_FailureWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, Options{}).LoadDocument(context.Background(), File{Name: "x.txt"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.UserMessage() != "" {
		t.Errorf("expected empty user message, got %q", se.UserMessage())
	}
}

func TestIndexAdministration(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/save_faiss_index":
			w.Write([]byte(`{"message":"Database saved to ` + body["path"] + `."}`))
		case "/load_faiss_index":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"Error loading database: missing"}`))
		case "/clear_faiss_index":
			w.Write([]byte(`{"message":"Database cleared."}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, Options{})
	ctx := context.Background()
	if msg, err := c.SaveIndex(ctx, "idx"); err != nil || msg != "Database saved to idx." {
		t.Errorf("save: %q %v", msg, err)
	}
	if _, err := c.LoadIndex(ctx, "idx"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected load error, got %v", err)
	}
	if msg, err := c.ClearIndex(ctx); err != nil || msg != "Database cleared." {
		t.Errorf("clear: %q %v", msg, err)
	}
	if len(paths) != 3 {
		t.Errorf("expected 3 calls, got %v", paths)
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("a.pdf", []byte("%PDF-1.4 rest")); got != "application/pdf" {
		t.Errorf("expected pdf by signature, got %q", got)
	}
	if got := ContentType("notes.unknownext", []byte("plain")); got != "application/octet-stream" {
		t.Errorf("expected octet-stream fallback, got %q", got)
	}
}
