package notion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/roelfdiedericks/notionvox/internal/titler"
)

type fakePages struct {
	requests []*notionapi.PageCreateRequest
	err      error
}

func (f *fakePages) Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &notionapi.Page{ID: "page-123", URL: "https://www.notion.so/page-123"}, nil
}

func newTestStore(t *testing.T, pages *fakePages) *Store {
	t.Helper()
	s := New(Config{Token: "secret_x", DatabaseID: "db-1"}, titler.New(nil))
	s.pages = pages
	return s
}

func TestCreateRecordNotConfigured(t *testing.T) {
	tests := []Config{
		{},
		{Token: "secret_x"},
		{DatabaseID: "db-1"},
	}
	for _, cfg := range tests {
		s := New(cfg, titler.New(nil))
		res := s.CreateRecord(context.Background(), "hello", 3, "Alice")
		f, ok := res.(Failure)
		if !ok {
			t.Fatalf("cfg %+v: expected Failure, got %T", cfg, res)
		}
		if f.Kind != KindUnavailable || f.Reason != "not configured" {
			t.Errorf("cfg %+v: got %v %q", cfg, f.Kind, f.Reason)
		}
	}
}

func TestCreateRecordSuccess(t *testing.T) {
	pages := &fakePages{}
	s := newTestStore(t, pages)

	transcript := "Pick up the dry cleaning and book a table for Friday dinner with the team."
	res := s.CreateRecord(context.Background(), transcript, 12, "Alice Smith")

	c, ok := res.(Created)
	if !ok {
		t.Fatalf("expected Created, got %#v", res)
	}
	if c.URL != "https://www.notion.so/page-123" || c.PageID != "page-123" {
		t.Errorf("created = %+v", c)
	}
	if c.Title != titler.Fallback(transcript) {
		t.Errorf("title = %q, want fallback", c.Title)
	}

	if len(pages.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(pages.requests))
	}
	req := pages.requests[0]
	if req.Parent.Type != notionapi.ParentTypeDatabaseID || req.Parent.DatabaseID != "db-1" {
		t.Errorf("parent = %+v", req.Parent)
	}

	title, ok := req.Properties["Title"].(notionapi.TitleProperty)
	if !ok || len(title.Title) != 1 || title.Title[0].Text.Content != c.Title {
		t.Errorf("Title property = %#v", req.Properties["Title"])
	}
	body, ok := req.Properties["Transcript"].(notionapi.RichTextProperty)
	if !ok || len(body.RichText) != 1 || body.RichText[0].Text.Content != transcript {
		t.Errorf("Transcript property = %#v", req.Properties["Transcript"])
	}
	dur, ok := req.Properties["Duration"].(notionapi.NumberProperty)
	if !ok || dur.Number != 12 {
		t.Errorf("Duration property = %#v", req.Properties["Duration"])
	}
	src, ok := req.Properties["Source"].(notionapi.SelectProperty)
	if !ok || src.Select.Name != "Telegram" {
		t.Errorf("Source property = %#v", req.Properties["Source"])
	}
}

func TestCreateRecordBlankTitle(t *testing.T) {
	pages := &fakePages{}
	s := newTestStore(t, pages)

	res := s.CreateRecord(context.Background(), "", 1, "Bob")
	c, ok := res.(Created)
	if !ok {
		t.Fatalf("expected Created, got %#v", res)
	}
	if c.Title != "Voice memo from Bob" {
		t.Errorf("title = %q", c.Title)
	}
}

func TestCreateRecordAPIError(t *testing.T) {
	pages := &fakePages{err: errors.New("validation_error: Title is not a property that exists")}
	s := newTestStore(t, pages)

	res := s.CreateRecord(context.Background(), "hello there", 2, "Alice")
	f, ok := res.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %#v", res)
	}
	if f.Kind != KindFailed || !strings.Contains(f.Reason, "validation_error") {
		t.Errorf("failure = %+v", f)
	}
	if len(pages.requests) != 1 {
		t.Errorf("requests = %d, want exactly 1 (no retries)", len(pages.requests))
	}
}

func TestCustomPropertyNames(t *testing.T) {
	pages := &fakePages{}
	s := New(Config{
		Token:       "secret_x",
		DatabaseID:  "db-1",
		Properties:  PropertyNames{Title: "Name", Transcript: "Body"},
		SourceValue: "Voice",
	}, titler.New(nil))
	s.pages = pages

	s.CreateRecord(context.Background(), "text", 1, "A")
	props := pages.requests[0].Properties
	for _, name := range []string{"Name", "Body", "Duration", "Source"} {
		if _, ok := props[name]; !ok {
			t.Errorf("missing property %q", name)
		}
	}
	if props["Source"].(notionapi.SelectProperty).Select.Name != "Voice" {
		t.Error("source value not applied")
	}
}

func TestRichTextChunks(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantChunks int
	}{
		{"empty", "", 1},
		{"short", "hello", 1},
		{"exact limit", strings.Repeat("a", 2000), 1},
		{"split", strings.Repeat("a", 4500), 3},
		{"multibyte", strings.Repeat("ß", 2001), 2},
		{"item cap", strings.Repeat("a", 2000*101), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := richTextChunks(tt.text)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("chunks = %d, want %d", len(chunks), tt.wantChunks)
			}
			var joined strings.Builder
			for _, c := range chunks {
				if n := len([]rune(c.Text.Content)); n > maxRichTextChars {
					t.Errorf("chunk has %d runes", n)
				}
				joined.WriteString(c.Text.Content)
			}
			if tt.wantChunks < maxRichTextItems && joined.String() != tt.text {
				t.Error("chunks do not reassemble the text")
			}
		})
	}
}
