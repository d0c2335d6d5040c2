package telegram

import (
	"context"

	tele "gopkg.in/telebot.v4"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/types"
)

// Dispatcher handles one normalized update.
type Dispatcher interface {
	Dispatch(ctx context.Context, upd types.Update)
}

// Poll receives updates by long polling and hands each one to d until ctx
// is cancelled.
func (b *Bot) Poll(ctx context.Context, d Dispatcher) {
	handler := func(c tele.Context) error {
		upd := Normalize(c.Update())
		if upd.Kind == types.UpdateIgnored {
			return nil
		}
		d.Dispatch(ctx, upd)
		return nil
	}
	// Middleware must be registered before the handlers it wraps.
	b.bot.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					L_error("telegram: handler panic", "panic", r)
				}
			}()
			return next(c)
		}
	})
	// Commands arrive through OnText; telebot's command table stays empty.
	for _, endpoint := range []string{tele.OnText, tele.OnVoice, tele.OnAudio, tele.OnDocument} {
		b.bot.Handle(endpoint, handler)
	}

	go func() {
		<-ctx.Done()
		L_info("telegram: stopping poller")
		b.bot.Stop()
	}()

	L_info("telegram: polling for updates", "bot", "@"+b.Username())
	b.bot.Start()
}
