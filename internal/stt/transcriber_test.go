package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeProvider records calls and returns canned output.
type fakeProvider struct {
	accepts map[string]bool
	text    string
	err     error
	calls   []string
}

func (f *fakeProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	f.calls = append(f.calls, filePath)
	if _, err := os.Stat(filePath); err != nil {
		return "", err
	}
	return f.text, f.err
}
func (f *fakeProvider) Accepts(mime string) bool { return f.accepts[mime] }
func (f *fakeProvider) Name() string             { return "fake" }
func (f *fakeProvider) Close() error             { return nil }

// oggOpus returns bytes that sniff as audio/ogg (Opus).
func oggOpus() []byte {
	b := append([]byte("OggS"), make([]byte, 24)...)
	b = append(b, []byte("OpusHead")...)
	return append(b, make([]byte, 32)...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeNotConfigured(t *testing.T) {
	tr := NewTranscriber(nil, "")
	res := tr.Transcribe(context.Background(), "/does/not/matter.oga")

	f, ok := res.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %T", res)
	}
	if f.Kind != KindUnavailable || f.Reason != "not configured" {
		t.Errorf("got %v %q", f.Kind, f.Reason)
	}
	if tr.Configured() {
		t.Error("nil provider should not be configured")
	}
}

func TestTranscribeRelabelsOga(t *testing.T) {
	src := writeFile(t, "voice_1_20250101_120000.oga", oggOpus())
	p := &fakeProvider{accepts: map[string]bool{"audio/ogg": true}, text: "  hello world \n"}
	tr := NewTranscriber(p, "").WithConverter(func(ctx context.Context, in, out string) error {
		t.Fatal("converter should not run for ogg")
		return nil
	})

	res := tr.Transcribe(context.Background(), src)
	tx, ok := res.(Transcript)
	if !ok {
		t.Fatalf("expected Transcript, got %#v", res)
	}
	if tx.Text != "hello world" {
		t.Errorf("text = %q, want trimmed", tx.Text)
	}
	if len(p.calls) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(p.calls))
	}
	if got := filepath.Ext(p.calls[0]); got != ".ogg" {
		t.Errorf("provider got %s, want .ogg upload", p.calls[0])
	}
	if _, err := os.Stat(p.calls[0]); !os.IsNotExist(err) {
		t.Errorf("relabelled copy should be cleaned up, stat err = %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("original should remain: %v", err)
	}
}

func TestTranscribeConvertsUnsupported(t *testing.T) {
	src := writeFile(t, "memo.oga", []byte("plain text, not audio"))
	p := &fakeProvider{accepts: map[string]bool{"audio/mpeg": true}, text: "converted"}
	converted := false
	tr := NewTranscriber(p, "").WithConverter(func(ctx context.Context, in, out string) error {
		converted = true
		return os.WriteFile(out, []byte("ID3"), 0600)
	})

	res := tr.Transcribe(context.Background(), src)
	if _, ok := res.(Transcript); !ok {
		t.Fatalf("expected Transcript, got %#v", res)
	}
	if !converted {
		t.Error("converter not called")
	}
	if len(p.calls) != 1 || !strings.HasSuffix(p.calls[0], ".mp3") {
		t.Errorf("provider calls = %v, want one .mp3", p.calls)
	}
}

func TestTranscribeFailures(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		provider   *fakeProvider
		convertErr error
		wantKind   Kind
		wantReason string
		wantCalls  int
	}{
		{
			name:       "conversion error",
			data:       []byte("not audio"),
			provider:   &fakeProvider{accepts: map[string]bool{}},
			convertErr: errors.New("ffmpeg not found"),
			wantKind:   KindConversion,
			wantReason: "ffmpeg not found",
			wantCalls:  0,
		},
		{
			name:       "provider error",
			data:       oggOpus(),
			provider:   &fakeProvider{accepts: map[string]bool{"audio/ogg": true}, err: errors.New("openai API error: 401")},
			wantKind:   KindFailed,
			wantReason: "openai API error: 401",
			wantCalls:  1,
		},
		{
			name:       "empty transcript",
			data:       oggOpus(),
			provider:   &fakeProvider{accepts: map[string]bool{"audio/ogg": true}, text: " \n\t"},
			wantKind:   KindFailed,
			wantReason: "empty transcript",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeFile(t, "voice.ogg", tt.data)
			tr := NewTranscriber(tt.provider, "").WithConverter(func(ctx context.Context, in, out string) error {
				return tt.convertErr
			})

			res := tr.Transcribe(context.Background(), src)
			f, ok := res.(Failure)
			if !ok {
				t.Fatalf("expected Failure, got %#v", res)
			}
			if f.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", f.Kind, tt.wantKind)
			}
			if !strings.Contains(f.Reason, tt.wantReason) {
				t.Errorf("reason = %q, want it to contain %q", f.Reason, tt.wantReason)
			}
			if len(tt.provider.calls) != tt.wantCalls {
				t.Errorf("provider calls = %d, want %d", len(tt.provider.calls), tt.wantCalls)
			}
		})
	}
}

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"nothing", Config{}, ""},
		{"explicit wins", Config{Provider: "groq", OpenAI: OpenAIConfig{APIKey: "k"}}, "groq"},
		{"openai key", Config{OpenAI: OpenAIConfig{APIKey: "k"}, Groq: GroqConfig{APIKey: "g"}}, "openai"},
		{"groq key", Config{Groq: GroqConfig{APIKey: "g"}}, "groq"},
		{"local model", Config{WhisperCpp: WhisperCppConfig{Model: "ggml-base.en.bin"}}, "whispercpp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolveProvider(); got != tt.want {
				t.Errorf("ResolveProvider() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewProviderUnconfigured(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Fatalf("NewProvider(empty) = %v, %v; want nil, nil", p, err)
	}
	if _, err := NewProvider(Config{Provider: "vosk"}); err == nil {
		t.Error("unknown provider should error")
	}
}

func TestOpenAIAccepts(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})
	if err != nil {
		t.Fatal(err)
	}
	for mime, want := range map[string]bool{
		"audio/ogg":  true,
		"audio/mpeg": true,
		"audio/amr":  false,
		"text/plain": false,
	} {
		if got := p.Accepts(mime); got != want {
			t.Errorf("Accepts(%q) = %v, want %v", mime, got, want)
		}
	}
}
