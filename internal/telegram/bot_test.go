package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeAPI records Bot API calls. rejectHTML makes every call carrying a
// parse_mode fail the way Telegram does on malformed entities.
type fakeAPI struct {
	mu         sync.Mutex
	calls      []apiCall
	rejectHTML bool
}

type apiCall struct {
	method string
	params map[string]interface{}
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	body, _ := io.ReadAll(r.Body)
	params := map[string]interface{}{}
	json.Unmarshal(body, &params)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, params: params})
	f.mu.Unlock()

	if _, html := params["parse_mode"]; html && f.rejectHTML {
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
		return
	}

	switch method {
	case "getMe":
		w.Write([]byte(`{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"Vox","username":"notionvox_bot"}}`))
	case "sendMessage", "editMessageText":
		w.Write([]byte(`{"ok":true,"result":{"message_id":321,"date":0,"chat":{"id":555,"type":"private"},"text":"x"}}`))
	case "getWebhookInfo":
		w.Write([]byte(`{"ok":true,"result":{"url":"https://example.com/webhook","pending_update_count":3,"last_error_message":"timeout"}}`))
	case "setWebhook", "deleteWebhook":
		w.Write([]byte(`{"ok":true,"result":true}`))
	default:
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method
	}
	return out
}

func newFakeBot(t *testing.T, api *fakeAPI, offline bool) *Bot {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)
	b, err := New(Options{Token: "TOKEN", APIURL: srv.URL, Offline: offline})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without token")
	}
}

func TestUsername(t *testing.T) {
	api := &fakeAPI{}
	b := newFakeBot(t, api, false)
	if b.Username() != "notionvox_bot" {
		t.Errorf("Username() = %q", b.Username())
	}
}

func TestSendText(t *testing.T) {
	api := &fakeAPI{}
	b := newFakeBot(t, api, true)

	id, err := b.SendText(555, "✅ **Voice message received!**")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != 321 {
		t.Errorf("id = %d", id)
	}
	call := api.calls[0]
	if call.params["parse_mode"] != "HTML" || call.params["text"] != "✅ <b>Voice message received!</b>" {
		t.Errorf("params = %v", call.params)
	}
}

func TestSendTextFallsBackToPlain(t *testing.T) {
	api := &fakeAPI{rejectHTML: true}
	b := newFakeBot(t, api, true)

	if _, err := b.SendText(555, "**Transcript:** 5 \\* 3"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if got := api.methods(); len(got) != 2 {
		t.Fatalf("calls = %v, want HTML attempt then plain", got)
	}
	plain := api.calls[1].params
	if _, ok := plain["parse_mode"]; ok {
		t.Error("fallback should not set parse_mode")
	}
	if plain["text"] != "Transcript: 5 * 3" {
		t.Errorf("fallback text = %q", plain["text"])
	}
}

func TestEditText(t *testing.T) {
	api := &fakeAPI{}
	b := newFakeBot(t, api, true)

	if err := b.EditText(555, 321, "done"); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	call := api.calls[0]
	if call.method != "editMessageText" {
		t.Errorf("method = %s", call.method)
	}
	if id, _ := call.params["message_id"].(string); id != "321" {
		if f, _ := call.params["message_id"].(float64); f != 321 {
			t.Errorf("message_id = %v", call.params["message_id"])
		}
	}
}

func TestWebhookAdmin(t *testing.T) {
	api := &fakeAPI{}
	b := newFakeBot(t, api, true)

	if err := b.SetWebhook("", "", false); err == nil {
		t.Error("expected error for empty URL")
	}
	if err := b.SetWebhook("https://example.com/webhook", "s3cret", true); err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}

	info, err := b.GetWebhook()
	if err != nil {
		t.Fatalf("GetWebhook: %v", err)
	}
	if info.URL != "https://example.com/webhook" || info.PendingUpdates != 3 || info.LastError != "timeout" {
		t.Errorf("info = %+v", info)
	}

	if err := b.DeleteWebhook(false); err != nil {
		t.Fatalf("DeleteWebhook: %v", err)
	}

	want := []string{"setWebhook", "getWebhookInfo", "deleteWebhook"}
	got := api.methods()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("methods = %v, want %v", got, want)
	}
}
