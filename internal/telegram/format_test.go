package telegram

import (
	"strings"
	"testing"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bold", "📝 **Transcript:**", "📝 <b>Transcript:</b>"},
		{"italic", "_note_", "<i>note</i>"},
		{"link", "[View Page](https://www.notion.so/abc?x=1&y=2)", `<a href="https://www.notion.so/abc?x=1&amp;y=2">View Page</a>`},
		{"escape html", "a < b & c", "a &lt; b &amp; c"},
		{"raw html dropped", "hi <script>x</script>", "hi x"},
		{"code", "`x<y`", "<code>x&lt;y</code>"},
		{"lines", "one\ntwo", "one\ntwo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMessage(tt.in); got != tt.want {
				t.Errorf("FormatMessage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeMarkdownRendersLiterally(t *testing.T) {
	inputs := []string{
		"5 * 3 = 15 and 2 * 2",
		"call [mom](tomorrow) at 5pm!",
		"# not a heading",
		"- not a list",
		"snake_case_name and __dunder__",
		"<b>not bold</b> & more",
		`back\slash`,
		"ünïcödé – fine",
	}
	for _, in := range inputs {
		got := FormatMessage(EscapeMarkdown(in))
		want := escapeHTML(in)
		if got != want {
			t.Errorf("escaped %q rendered as %q, want %q", in, got, want)
		}
	}
}

func TestPlainText(t *testing.T) {
	md := "📝 **Transcript:**\n" + EscapeMarkdown("5 * 3 [x]")
	got := PlainText(md)
	if got != "📝 Transcript:\n5 * 3 [x]" {
		t.Errorf("PlainText = %q", got)
	}
	if strings.Contains(got, `\`) {
		t.Error("escapes left in plain text")
	}
}
