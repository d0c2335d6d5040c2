// Package gateway classifies inbound Telegram updates and routes them to the
// voice pipeline or the command responder.
package gateway

import (
	"context"

	"github.com/roelfdiedericks/notionvox/internal/auth"
	"github.com/roelfdiedericks/notionvox/internal/commands"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/pipeline"
	"github.com/roelfdiedericks/notionvox/internal/types"
)

// VoiceRunner processes one voice message to completion.
type VoiceRunner interface {
	Run(ctx context.Context, msg types.VoiceMessage) pipeline.Outcome
}

// Sender delivers a markdown reply to a chat.
type Sender interface {
	SendText(chatID int64, text string) (int, error)
}

// Gateway is the single entry point for updates, whichever transport
// delivered them (webhook, lambda or long polling).
type Gateway struct {
	pipeline    VoiceRunner
	commands    *commands.Manager
	gate        pipeline.Authorizer
	messenger   Sender
	environment string
}

// New creates a gateway.
func New(p VoiceRunner, cmds *commands.Manager, gate pipeline.Authorizer, messenger Sender, environment string) *Gateway {
	return &Gateway{
		pipeline:    p,
		commands:    cmds,
		gate:        gate,
		messenger:   messenger,
		environment: environment,
	}
}

// Dispatch routes one update. Delivery failures are logged, not returned:
// a blocked bot or a deleted chat will not succeed on redelivery.
func (g *Gateway) Dispatch(ctx context.Context, upd types.Update) {
	MetricOutcome("gateway", "update", upd.Kind.String())

	switch upd.Kind {
	case types.UpdateVoice:
		g.pipeline.Run(ctx, *upd.Voice)
	case types.UpdateText:
		g.handleText(ctx, upd)
	default:
		L_trace("gateway: ignoring update", "updateID", upd.ID)
	}
}

func (g *Gateway) handleText(ctx context.Context, upd types.Update) {
	cmd, rawArgs := g.commands.Lookup(upd.Text)
	if cmd == nil {
		g.reply(upd.ChatID, commands.PromptMessage)
		return
	}

	if !cmd.Public && !g.gate.IsAuthorized(upd.Sender.ID, upd.Sender.DisplayName()) {
		g.reply(upd.ChatID, auth.UnauthorizedMessage)
		return
	}

	MetricInc("commands", cmd.Name)
	res := g.commands.Execute(ctx, cmd, &commands.Args{
		Sender:  upd.Sender,
		ChatID:  upd.ChatID,
		RawArgs: rawArgs,
	})
	if res != nil {
		g.reply(upd.ChatID, res.Markdown)
	}
}

func (g *Gateway) reply(chatID int64, text string) {
	if _, err := g.messenger.SendText(chatID, text); err != nil {
		L_warn("gateway: reply not delivered", "chatID", chatID, "error", err)
		MetricFail("gateway", "reply")
	}
}
