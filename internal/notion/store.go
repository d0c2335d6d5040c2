// Package notion stores transcribed voice memos as pages in a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/titler"
)

// ErrNotConfigured is the reason given when the token or database ID is unset.
var ErrNotConfigured = errors.New("not configured")

const (
	// maxRichTextChars is Notion's limit per rich text object.
	maxRichTextChars = 2000
	// maxRichTextItems is Notion's limit of rich text objects per property.
	maxRichTextItems = 100
)

// Config holds Notion connection and schema settings.
type Config struct {
	Token          string        `json:"token"`
	DatabaseID     string        `json:"databaseId"`
	Properties     PropertyNames `json:"properties"`
	SourceValue    string        `json:"sourceValue"`    // select option for Source, default "Telegram"
	TimeoutSeconds int           `json:"timeoutSeconds"` // default 30
}

// PropertyNames maps record fields to database column names.
type PropertyNames struct {
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
	Duration   string `json:"duration"`
	Source     string `json:"source"`
}

func (p PropertyNames) withDefaults() PropertyNames {
	if p.Title == "" {
		p.Title = "Title"
	}
	if p.Transcript == "" {
		p.Transcript = "Transcript"
	}
	if p.Duration == "" {
		p.Duration = "Duration"
	}
	if p.Source == "" {
		p.Source = "Source"
	}
	return p
}

// Configured reports whether both credentials are present.
func (c Config) Configured() bool {
	return c.Token != "" && c.DatabaseID != ""
}

// Kind classifies a store failure.
type Kind int

const (
	KindUnavailable Kind = iota + 1 // missing credentials
	KindFailed                      // API call failed
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is either Created or Failure.
type Result interface {
	isResult()
}

// Created is a successfully stored page.
type Created struct {
	URL    string
	PageID string
	Title  string
}

// Failure describes why no page was created.
type Failure struct {
	Kind   Kind
	Reason string
}

func (Created) isResult() {}
func (Failure) isResult() {}

func (f Failure) Error() string {
	return f.Reason
}

// pageCreator is the slice of the Notion client the store needs.
type pageCreator interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Store creates one page per transcript.
type Store struct {
	pages       pageCreator
	databaseID  notionapi.DatabaseID
	props       PropertyNames
	sourceValue string
	titler      *titler.Titler
}

// New creates a store. Without a token or database ID every CreateRecord
// returns an unavailable failure without network access.
func New(cfg Config, t *titler.Titler) *Store {
	s := &Store{
		databaseID:  notionapi.DatabaseID(cfg.DatabaseID),
		props:       cfg.Properties.withDefaults(),
		sourceValue: cfg.SourceValue,
		titler:      t,
	}
	if s.sourceValue == "" {
		s.sourceValue = "Telegram"
	}
	if !cfg.Configured() {
		L_warn("notion: token or database ID missing, records will not be stored")
		return s
	}

	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := notionapi.NewClient(notionapi.Token(cfg.Token), notionapi.WithHTTPClient(&http.Client{Timeout: timeout}))
	s.pages = client.Page
	L_debug("notion: store ready", "database", cfg.DatabaseID)
	return s
}

// Configured reports whether records can be stored.
func (s *Store) Configured() bool {
	return s != nil && s.pages != nil
}

// CreateRecord titles the transcript and creates a page in the database.
// A single API call is made; there are no retries.
func (s *Store) CreateRecord(ctx context.Context, transcript string, durationSeconds int, authorLabel string) Result {
	if !s.Configured() {
		MetricFailWithReason("notion", "create", KindUnavailable.String())
		return Failure{Kind: KindUnavailable, Reason: ErrNotConfigured.Error()}
	}

	title := s.titler.TitleFor(ctx, transcript)
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Voice memo from %s", authorLabel)
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: s.databaseID,
		},
		Properties: s.properties(title, transcript, durationSeconds),
	}

	done := MetricTimer("notion", "create")
	page, err := s.pages.Create(ctx, req)
	done()
	if err != nil {
		L_error("notion: page creation failed", "database", s.databaseID, "error", err)
		MetricFailWithReason("notion", "create", KindFailed.String())
		return Failure{Kind: KindFailed, Reason: err.Error()}
	}

	MetricSuccess("notion", "create")
	L_info("notion: page created", "title", title, "url", page.URL)
	return Created{URL: page.URL, PageID: string(page.ID), Title: title}
}

func (s *Store) properties(title, transcript string, durationSeconds int) notionapi.Properties {
	return notionapi.Properties{
		s.props.Title: notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: title}}},
		},
		s.props.Transcript: notionapi.RichTextProperty{
			RichText: richTextChunks(transcript),
		},
		s.props.Duration: notionapi.NumberProperty{
			Number: float64(durationSeconds),
		},
		s.props.Source: notionapi.SelectProperty{
			Select: notionapi.Option{Name: s.sourceValue},
		},
	}
}

// richTextChunks splits text into rich text objects within Notion's limits.
// Text past the item limit is dropped.
func richTextChunks(text string) []notionapi.RichText {
	runes := []rune(text)
	chunks := make([]notionapi.RichText, 0, len(runes)/maxRichTextChars+1)
	for start := 0; start < len(runes); start += maxRichTextChars {
		if len(chunks) == maxRichTextItems {
			L_warn("notion: transcript truncated to fit property limits", "runes", len(runes))
			break
		}
		end := start + maxRichTextChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, notionapi.RichText{Text: &notionapi.Text{Content: string(runes[start:end])}})
	}
	if len(chunks) == 0 {
		chunks = append(chunks, notionapi.RichText{Text: &notionapi.Text{Content: ""}})
	}
	return chunks
}
