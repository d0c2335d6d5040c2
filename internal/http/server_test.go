package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roelfdiedericks/notionvox/internal/gateway"
	"github.com/roelfdiedericks/notionvox/internal/metrics"
)

type fakeWebhook struct {
	bodies [][]byte
	ctxErr error
}

func (f *fakeWebhook) HandleWebhook(ctx context.Context, body []byte) gateway.Envelope {
	f.bodies = append(f.bodies, body)
	f.ctxErr = ctx.Err()
	return gateway.OK()
}

func (f *fakeWebhook) Health() gateway.Envelope {
	return gateway.OK()
}

func newTestServer(t *testing.T, secret string) (*httptest.Server, *fakeWebhook) {
	t.Helper()
	wh := &fakeWebhook{}
	s := NewServer(&ServerConfig{Secret: secret}, wh)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, wh
}

func post(t *testing.T, url, secret, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebhook(t *testing.T) {
	ts, wh := newTestServer(t, "")
	resp := post(t, ts.URL+"/webhook", "", `{"update_id":1}`, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != `{"status":"ok"}` {
		t.Errorf("body = %s", body)
	}
	if len(wh.bodies) != 1 || string(wh.bodies[0]) != `{"update_id":1}` {
		t.Errorf("bodies = %q", wh.bodies)
	}
	if wh.ctxErr != nil {
		t.Errorf("context already done: %v", wh.ctxErr)
	}
}

func TestWebhookSecret(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusForbidden},
		{"wrong", "nope", http.StatusForbidden},
		{"correct", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, wh := newTestServer(t, "s3cret")
			resp := post(t, ts.URL+"/webhook", tt.header, `{}`, nil)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want != http.StatusOK && len(wh.bodies) != 0 {
				t.Error("rejected request reached the gateway")
			}
		})
	}
}

func TestWebhookSecretRateLimit(t *testing.T) {
	ts, _ := newTestServer(t, "s3cret")

	if resp := post(t, ts.URL+"/webhook", "bad", `{}`, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("first = %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/webhook", "s3cret", `{}`, nil); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("after failure = %d, want 429", resp.StatusCode)
	}
}

// serveFrom runs one webhook POST through the handler as if it came from remote.
func serveFrom(h http.Handler, remote, secret string, headers map[string]string) int {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	req.RemoteAddr = remote
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestSpoofedForwardedForCannotLockOutTelegram(t *testing.T) {
	wh := &fakeWebhook{}
	h := NewServer(&ServerConfig{Secret: "s3cret"}, wh).Handler()
	spoof := map[string]string{"X-Forwarded-For": "149.154.167.220, 10.0.0.9"}

	if code := serveFrom(h, "198.51.100.7:40000", "wrong", spoof); code != http.StatusForbidden {
		t.Fatalf("bad secret = %d, want 403", code)
	}
	code := serveFrom(h, "149.154.167.220:443", "s3cret", map[string]string{"X-Forwarded-For": "149.154.167.220"})
	if code != http.StatusOK || len(wh.bodies) != 1 {
		t.Errorf("telegram delivery = %d, delivered=%d; want 200 and 1", code, len(wh.bodies))
	}
}

func TestLockoutIgnoresSourcePort(t *testing.T) {
	h := NewServer(&ServerConfig{Secret: "s3cret"}, &fakeWebhook{}).Handler()

	serveFrom(h, "198.51.100.7:40000", "wrong", nil)
	if code := serveFrom(h, "198.51.100.7:40001", "s3cret", nil); code != http.StatusTooManyRequests {
		t.Errorf("new connection = %d, want 429", code)
	}
}

func TestClientIP(t *testing.T) {
	s := NewServer(&ServerConfig{TrustedProxies: []string{"10.0.0.0/8", "192.0.2.1", "bogus"}}, &fakeWebhook{})

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct strips port", "198.51.100.7:5555", nil, "198.51.100.7"},
		{"direct ipv6", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"untrusted peer ignores xff", "198.51.100.7:5555", map[string]string{"X-Forwarded-For": "149.154.167.220"}, "198.51.100.7"},
		{"untrusted peer ignores real ip", "198.51.100.7:5555", map[string]string{"X-Real-IP": "149.154.167.220"}, "198.51.100.7"},
		{"trusted proxy uses rightmost hop", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "149.154.167.220, 203.0.113.5"}, "203.0.113.5"},
		{"skips chained proxies", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.9, 192.0.2.1"}, "203.0.113.5"},
		{"trusted single ip", "192.0.2.1:80", map[string]string{"X-Real-IP": "203.0.113.5"}, "203.0.113.5"},
		{"trusted without headers", "10.1.2.3:80", nil, "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := s.clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWebhookMethod(t *testing.T) {
	ts, _ := newTestServer(t, "")
	resp, err := http.Get(ts.URL + "/webhook")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /webhook = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, "s3cret")
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestMetricsAPI(t *testing.T) {
	metrics.MetricInc("http_test", "probe")
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got struct {
		Metrics []struct {
			Path string `json:"path"`
		} `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, m := range got.Metrics {
		if m.Path == "http_test/probe" {
			found = true
		}
	}
	if !found {
		t.Errorf("metric missing from %+v", got.Metrics)
	}
}

func TestRateLimiterExpires(t *testing.T) {
	rl := NewRateLimiter(20 * time.Millisecond)
	rl.RecordFailure("1.2.3.4")
	if !rl.IsLimited("1.2.3.4") {
		t.Fatal("not limited right after failure")
	}
	time.Sleep(30 * time.Millisecond)
	if rl.IsLimited("1.2.3.4") {
		t.Error("still limited after delay")
	}
}

func TestRateLimiterEscalates(t *testing.T) {
	rl := NewRateLimiter(20 * time.Millisecond)
	for i := 0; i < 3; i++ {
		rl.RecordFailure("5.6.7.8")
	}
	time.Sleep(30 * time.Millisecond)
	if !rl.IsLimited("5.6.7.8") {
		t.Fatal("third strike expired after a single delay")
	}
	rl.ClearFailure("5.6.7.8")
	if rl.IsLimited("5.6.7.8") {
		t.Error("still limited after clear")
	}
}
