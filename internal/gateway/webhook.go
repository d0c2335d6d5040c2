package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/telegram"
	"github.com/roelfdiedericks/notionvox/internal/types"
)

// ErrEmptyBody means the request carried no update.
var ErrEmptyBody = errors.New("empty request body")

// Envelope is the transport-neutral webhook response.
type Envelope struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

type envelopeBody struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Environment string `json:"environment,omitempty"`
}

func newEnvelope(status int, body envelopeBody) Envelope {
	data, err := json.Marshal(body)
	if err != nil {
		// envelopeBody always marshals
		panic(err)
	}
	return Envelope{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

// OK is the acknowledgement returned after every dispatched update.
func OK() Envelope {
	return newEnvelope(http.StatusOK, envelopeBody{Status: "ok"})
}

// Error is the 500 envelope.
func Error(err error) Envelope {
	return newEnvelope(http.StatusInternalServerError, envelopeBody{Status: "error", Message: err.Error()})
}

// Health answers direct invocations without an update.
func (g *Gateway) Health() Envelope {
	return newEnvelope(http.StatusOK, envelopeBody{
		Status:      "ok",
		Message:     "NotionVox is running",
		Environment: g.environment,
	})
}

// Decode parses a Telegram update.
func Decode(body []byte) (types.Update, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return types.Update{}, ErrEmptyBody
	}
	var upd tele.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		return types.Update{}, fmt.Errorf("failed to decode update: %w", err)
	}
	return telegram.Normalize(upd), nil
}

// HandleWebhook decodes and dispatches one webhook body. An empty body is a
// health probe.
func (g *Gateway) HandleWebhook(ctx context.Context, body []byte) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			L_error("gateway: panic handling webhook", "panic", r, "stack", string(debug.Stack()))
			MetricFailWithReason("gateway", "webhook", "panic")
			env = Error(fmt.Errorf("internal error: %v", r))
		}
	}()

	upd, err := Decode(body)
	if errors.Is(err, ErrEmptyBody) {
		L_debug("gateway: direct invocation, returning health")
		return g.Health()
	}
	if err != nil {
		L_warn("gateway: bad webhook body", "error", err, "bytes", len(body))
		MetricFailWithReason("gateway", "webhook", "decode")
		return Error(err)
	}

	L_debug("gateway: update received", "updateID", upd.ID, "kind", upd.Kind, "chatID", upd.ChatID)
	g.Dispatch(ctx, upd)
	MetricSuccess("gateway", "webhook")
	return OK()
}
