package titler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Name() string  { return "fake" }
func (f *fakeLLM) Model() string { return "fake-1" }
func (f *fakeLLM) SimpleMessage(ctx context.Context, user, system string) (string, error) {
	f.prompts = append(f.prompts, user)
	return f.reply, f.err
}

// newTestTitler avoids loading the tiktoken encoding.
func newTestTitler(f *fakeLLM) *Titler {
	t := New(f)
	t.truncate = func(text string, maxTokens int) string { return text }
	return t
}

func TestFallback(t *testing.T) {
	long := strings.Repeat("word ", 30)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "Buy milk", "Buy milk"},
		{"exactly fifty", strings.Repeat("x", 50), strings.Repeat("x", 50)},
		{"long", long, long[:50] + "..."},
		{"multibyte", strings.Repeat("ü", 60), strings.Repeat("ü", 50) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fallback(tt.in); got != tt.want {
				t.Errorf("Fallback() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`  "Grocery Run Reminder"  `, "Grocery Run Reminder"},
		{`'Quarterly Budget Review'`, "Quarterly Budget Review"},
		{`"'Nested Quotes'"`, "Nested Quotes"},
		{"Plain Title\n", "Plain Title"},
		{strings.Repeat("a", 150), strings.Repeat("a", 97) + "..."},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleForWithoutProvider(t *testing.T) {
	transcript := strings.Repeat("This memo has a lot to say. ", 5)
	got := New(nil).TitleFor(context.Background(), transcript)
	if got != Fallback(transcript) {
		t.Errorf("TitleFor = %q, want fallback %q", got, Fallback(transcript))
	}
}

func TestTitleForProvider(t *testing.T) {
	transcript := "Remember to call the plumber about the kitchen sink tomorrow morning before work."

	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"model title", `"Call Plumber About Sink"`, nil, "Call Plumber About Sink"},
		{"provider error", "", errors.New("status 429"), Fallback(transcript)},
		{"blank reply", "  \"\" ", nil, Fallback(transcript)},
		{"overlong reply", strings.Repeat("Long ", 40), nil, strings.Repeat("Long ", 40)[:97] + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeLLM{reply: tt.reply, err: tt.err}
			got := newTestTitler(f).TitleFor(context.Background(), transcript)
			if got != tt.want {
				t.Errorf("TitleFor = %q, want %q", got, tt.want)
			}
			if utf8.RuneCountInString(got) > MaxTitleRunes && got != Fallback(transcript) {
				t.Errorf("title exceeds %d runes: %q", MaxTitleRunes, got)
			}
			if len(f.prompts) != 1 {
				t.Fatalf("prompts = %d, want 1", len(f.prompts))
			}
			if !strings.Contains(f.prompts[0], `Transcript: "`+transcript+`"`) {
				t.Errorf("prompt does not quote transcript: %q", f.prompts[0])
			}
		})
	}
}

func TestTitleForCapsPrompt(t *testing.T) {
	f := &fakeLLM{reply: "Short"}
	tt := New(f)
	var gotMax int
	tt.truncate = func(text string, maxTokens int) string {
		gotMax = maxTokens
		return text[:10]
	}
	tt.TitleFor(context.Background(), strings.Repeat("z", 100))
	if gotMax != PromptTokenCap {
		t.Errorf("truncate max = %d, want %d", gotMax, PromptTokenCap)
	}
	if strings.Contains(f.prompts[0], strings.Repeat("z", 11)) {
		t.Error("prompt should contain the truncated transcript only")
	}
}
