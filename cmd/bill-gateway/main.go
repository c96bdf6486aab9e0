package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/billgate/alipay-bill-gateway/pkg/alipay"
	"github.com/billgate/alipay-bill-gateway/pkg/billing"
	"github.com/billgate/alipay-bill-gateway/pkg/config"
	"github.com/billgate/alipay-bill-gateway/pkg/gateway"
	"github.com/billgate/alipay-bill-gateway/pkg/logger"
	"github.com/billgate/alipay-bill-gateway/pkg/signer"
)

const defaultPort = 8080

func main() {
	app := &cli.App{
		Name:  "bill-gateway",
		Usage: "Alipay bill query gateway",
		Description: `An HTTP gateway for a private network that exposes:
- GET  /balance     query the Alipay account balance
- GET  /accountlog  query the last 7 days of account records
- POST /sign        generate a webhook HMAC-SHA256 signature

Credentials are read once at startup from alipay.properties.`,
		Version:   "1.0.0",
		ArgsUsage: "[port]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   defaultPort,
				Usage:   "HTTP listen port",
				EnvVars: []string{config.EnvPort},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the alipay.properties file",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Action: runGateway,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runGateway(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			if werr := config.WriteTemplate(); werr != nil {
				l.Sugar().Errorw("Failed to write template configuration", "error", werr)
				return cli.Exit("configuration error: "+werr.Error(), 1)
			}
			l.Sugar().Errorw("No configuration found; template written",
				"file", config.DefaultFileName,
				"hint", "fill in your Alipay credentials and restart",
			)
			return cli.Exit("missing configuration: template "+config.DefaultFileName+" generated", 1)
		}
		return cli.Exit("configuration error: "+err.Error(), 1)
	}
	l.Sugar().Infow("Configuration loaded", "gateway", cfg.GatewayURL, "app_id", cfg.AppID)

	client, err := alipay.NewClient(&alipay.ClientConfig{
		GatewayURL:      cfg.GatewayURL,
		AppID:           cfg.AppID,
		AppPrivateKey:   cfg.AppPrivateKey,
		AlipayPublicKey: cfg.AlipayPublicKey,
		Logger:          l,
	})
	if err != nil {
		return cli.Exit("configuration error: "+err.Error(), 1)
	}

	svc, err := billing.NewService(&billing.ServiceConfig{
		Executor:   client,
		BillUserID: cfg.BillUserID,
		Logger:     l,
	})
	if err != nil {
		return cli.Exit("configuration error: "+err.Error(), 1)
	}

	port := resolvePort(c, l)
	server := gateway.NewServer(&gateway.ServerConfig{
		Port:    port,
		Billing: svc,
		Signer:  signer.New(),
		Logger:  l,
	})
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Server started", "port", port)
	l.Sugar().Infof("Query balance at http://localhost:%d/balance", port)
	l.Sugar().Infof("Query account log at http://localhost:%d/accountlog", port)
	l.Sugar().Infof("Generate signatures at http://localhost:%d/sign", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	l.Sugar().Infow("Shutting down", "signal", sig.String())

	return server.Stop()
}

// resolvePort picks the listen port: the --port flag when set, otherwise the
// first positional argument. An unparsable argument logs a diagnostic and
// falls back to the default, never aborting startup.
func resolvePort(c *cli.Context, l *zap.Logger) int {
	if c.IsSet("port") {
		return c.Int("port")
	}
	if arg := c.Args().First(); arg != "" {
		port, err := strconv.Atoi(arg)
		if err != nil || port < 1 || port > 65535 {
			l.Sugar().Warnw("Invalid port argument, using default", "arg", arg, "default", defaultPort)
			return defaultPort
		}
		return port
	}
	return c.Int("port")
}
