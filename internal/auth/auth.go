// Package auth decides which Telegram users may trigger the voice pipeline.
package auth

import (
	"sort"
	"sync/atomic"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
)

// UnauthorizedMessage is the reply to users not on the allow-list.
const UnauthorizedMessage = "⛔ Sorry, you are not authorized to use this bot.\n" +
	"Send /myid to get your user ID and ask the owner to add it to the allow-list."

// Gate is an immutable allow-list of Telegram user IDs.
// Reconfiguration builds a new Gate; an existing one is never changed.
type Gate struct {
	allowed map[int64]struct{}
}

// NewGate copies ids into a new gate. An empty list denies everyone.
func NewGate(ids []int64) *Gate {
	g := &Gate{allowed: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		g.allowed[id] = struct{}{}
	}
	if len(g.allowed) == 0 {
		L_warn("auth: allow-list is empty, every user will be rejected")
	}
	return g
}

// IsAuthorized reports whether userID is on the allow-list.
// displayName is only used for the rejection log line.
func (g *Gate) IsAuthorized(userID int64, displayName string) bool {
	if g != nil {
		if _, ok := g.allowed[userID]; ok {
			return true
		}
	}
	L_warn("auth: rejected user", "userID", userID, "name", displayName)
	MetricInc("auth", "rejected")
	return false
}

// Len returns the number of allowed users.
func (g *Gate) Len() int {
	if g == nil {
		return 0
	}
	return len(g.allowed)
}

// IDs returns the allowed user IDs in ascending order.
func (g *Gate) IDs() []int64 {
	if g == nil {
		return nil
	}
	ids := make([]int64, 0, len(g.allowed))
	for id := range g.allowed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Holder publishes the current gate to concurrent readers.
type Holder struct {
	gate atomic.Pointer[Gate]
}

// NewHolder returns a holder serving g.
func NewHolder(g *Gate) *Holder {
	h := &Holder{}
	h.gate.Store(g)
	return h
}

// Current returns the gate in effect.
func (h *Holder) Current() *Gate {
	return h.gate.Load()
}

// IsAuthorized checks against the gate in effect.
func (h *Holder) IsAuthorized(userID int64, displayName string) bool {
	return h.Current().IsAuthorized(userID, displayName)
}

// Swap replaces the gate and returns the previous one.
func (h *Holder) Swap(g *Gate) *Gate {
	old := h.gate.Swap(g)
	L_info("auth: allow-list updated", "count", g.Len(), "users", g.IDs())
	return old
}
