package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/telegram"
)

// TestTelegramToken checks a bot token and returns the bot's username.
func TestTelegramToken(token string) (string, error) {
	return telegram.TestToken(token, "")
}

// TestNotionDatabase checks that the integration can read the database and
// returns its title.
func TestNotionDatabase(token, databaseID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := notionapi.NewClient(notionapi.Token(token))
	db, err := client.Database.Get(ctx, notionapi.DatabaseID(databaseID))
	if err != nil {
		return "", fmt.Errorf("database not reachable: %w", err)
	}

	title := databaseID
	if len(db.Title) > 0 && db.Title[0].PlainText != "" {
		title = db.Title[0].PlainText
	}
	L_debug("setup: notion database reachable", "id", databaseID, "title", title)
	return title, nil
}
