// Command notionvox is a Telegram bot that transcribes voice messages and
// saves them to a Notion database.
package main

import (
	"github.com/alecthomas/kong"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" help:"Config file (default: ./notionvox.json or ~/.notionvox/notionvox.json)." type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level (trace, debug, info, warn, error)."`
}

// CLI is the command tree.
type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Run the webhook HTTP server."`
	Poll    PollCmd    `cmd:"" help:"Receive updates by long polling."`
	Lambda  LambdaCmd  `cmd:"" help:"Run as an AWS Lambda function behind API Gateway."`
	Webhook WebhookCmd `cmd:"" help:"Manage the Telegram webhook registration."`
	Setup   SetupCmd   `cmd:"" help:"Interactive configuration wizard."`
	Config  ConfigCmd  `cmd:"" name:"config" help:"Print the effective configuration with secrets masked."`
	Models  ModelsCmd  `cmd:"" help:"Manage local whisper.cpp models."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("notionvox"),
		kong.Description("Telegram voice memos to Notion."),
		kong.UsageOnError(),
	)

	Init(DefaultLogConfig())
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
