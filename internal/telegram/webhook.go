package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// WebhookInfo is the subset of getWebhookInfo shown by `notionvox webhook info`.
type WebhookInfo struct {
	URL            string
	PendingUpdates int
	LastError      string
}

// SetWebhook registers url with Telegram. secret is echoed back in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (b *Bot) SetWebhook(url, secret string, dropPending bool) error {
	if url == "" {
		return fmt.Errorf("webhook URL is required")
	}
	hook := &tele.Webhook{
		Endpoint:       &tele.WebhookEndpoint{PublicURL: url},
		SecretToken:    secret,
		AllowedUpdates: []string{"message"},
		DropUpdates:    dropPending,
	}
	if err := b.bot.SetWebhook(hook); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	L_info("telegram: webhook registered", "url", url, "secret", secret != "")
	return nil
}

// GetWebhook returns the current webhook registration.
func (b *Bot) GetWebhook() (*WebhookInfo, error) {
	hook, err := b.bot.Webhook()
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook info: %w", err)
	}
	// getWebhookInfo's "url" is decoded into Listen.
	return &WebhookInfo{
		URL:            hook.Listen,
		PendingUpdates: hook.PendingUpdates,
		LastError:      hook.ErrorMessage,
	}, nil
}

// DeleteWebhook removes the webhook so long polling can be used again.
func (b *Bot) DeleteWebhook(dropPending bool) error {
	if err := b.bot.RemoveWebhook(dropPending); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	L_info("telegram: webhook removed")
	return nil
}
