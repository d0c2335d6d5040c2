package http

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
)

// SecretHeader carries the secret registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// secretToken rejects webhook posts without the configured secret.
func (s *Server) secretToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := s.clientIP(r)
		if s.rateLimiter.IsLimited(clientIP) {
			L_warn("http: rate limited", "ip", clientIP)
			http.Error(w, "Too many failed attempts. Try again later.", http.StatusTooManyRequests)
			return
		}

		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			s.rateLimiter.RecordFailure(clientIP)
			L_warn("http: webhook secret mismatch", "ip", clientIP, "present", got != "")
			MetricFailWithReason("http", "webhook_auth", "secret")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		s.rateLimiter.ClearFailure(clientIP)
		next.ServeHTTP(w, r)
	})
}

// clientIP is the address the lockout is keyed on: the peer's host without
// its port. Forwarding headers only count when the peer is a trusted proxy,
// and then the rightmost X-Forwarded-For hop that is not itself a trusted
// proxy wins, since everything left of it is client-supplied.
func (s *Server) clientIP(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if !s.proxies.contains(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !s.proxies.contains(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// proxyList holds the trusted proxy networks.
type proxyList []*net.IPNet

// parseProxies accepts IPs and CIDRs. Invalid entries are logged and skipped.
func parseProxies(entries []string) proxyList {
	var list proxyList
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			if ip := net.ParseIP(e); ip != nil && ip.To4() != nil {
				e += "/32"
			} else {
				e += "/128"
			}
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			L_warn("http: ignoring invalid trusted proxy", "value", e, "error", err)
			continue
		}
		list = append(list, n)
	}
	return list
}

func (p proxyList) contains(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range p {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
