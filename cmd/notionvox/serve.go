package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sevlyar/go-daemon"

	nvhttp "github.com/roelfdiedericks/notionvox/internal/http"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// ServeCmd runs the webhook server.
type ServeCmd struct {
	Listen string `help:"Listen address (overrides http.listen)."`
	Path   string `help:"Webhook path." default:"/webhook"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.HTTP.Listen = c.Listen
	}

	a, err := newApp(cfg, appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.startBackground(ctx)

	srv := nvhttp.NewServer(&nvhttp.ServerConfig{
		Listen:         cfg.HTTP.Listen,
		WebhookPath:    c.Path,
		Secret:         cfg.Telegram.WebhookSecret,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, a.gateway)
	if err := srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	L_info("notionvox: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// PollCmd runs the bot with long polling.
type PollCmd struct {
	Daemon  bool   `help:"Detach and run in the background."`
	PidFile string `name:"pid-file" help:"PID file when running as a daemon." default:"notionvox.pid"`
	LogFile string `name:"log-file" help:"Log file when running as a daemon." default:"notionvox.log"`
}

func (c *PollCmd) Run(g *Globals) error {
	if c.Daemon {
		dctx := &daemon.Context{
			PidFileName: c.PidFile,
			PidFilePerm: 0644,
			LogFileName: c.LogFile,
			LogFilePerm: 0640,
			Umask:       027,
		}
		child, err := dctx.Reborn()
		if err != nil {
			return err
		}
		if child != nil {
			L_info("notionvox: started in background", "pid", child.Pid, "log", c.LogFile)
			return nil
		}
		defer dctx.Release()
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, appOptions{pollTimeout: time.Duration(cfg.Telegram.PollTimeoutSeconds) * time.Second})
	if err != nil {
		return err
	}
	defer a.Close()

	if info, err := a.bot.GetWebhook(); err == nil && info.URL != "" {
		L_warn("telegram: a webhook is registered, polling will not receive updates until it is deleted", "url", info.URL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.startBackground(ctx)

	a.bot.Poll(ctx, a.gateway)
	return nil
}

// LambdaCmd runs inside the AWS Lambda Go runtime.
type LambdaCmd struct{}

func (c *LambdaCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	// metrics persistence needs a disk that outlives the invocation
	cfg.Metrics.Persist = false

	a, err := newApp(cfg, appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	lambda.Start(sweepBefore(a.media.Sweep, a.gateway.LambdaHandler))
	return nil
}

type lambdaHandler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// sweepBefore expires old scratch audio at the start of each invocation.
// Audio kept after a failed transcription would otherwise live as long as
// the warm container.
func sweepBefore(sweep func(time.Time) (int, error), next lambdaHandler) lambdaHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if n, err := sweep(time.Now()); err != nil {
			L_warn("media: sweep error", "error", err)
		} else if n > 0 {
			L_debug("media: expired scratch removed", "count", n)
		}
		return next(ctx, req)
	}
}
