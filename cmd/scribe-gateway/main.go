// ABOUTME: Entry point for scribe-gateway, the submission review and QA service
// ABOUTME: Subcommands serve the gateway and perform local administration

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/scribe-gateway/internal/auth"
	"github.com/2389/scribe-gateway/internal/config"
	"github.com/2389/scribe-gateway/internal/gateway"
	"github.com/2389/scribe-gateway/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
                _ _
 ___  ___ _ __(_) |__   ___
/ __|/ __| '__| | '_ \ / _ \
\__ \ (__| |  | | |_) |  __/
|___/\___|_|  |_|_.__/ \___|  gateway
`

const usage = `Usage: scribe-gateway <command>

Commands:
  serve                      Start the gateway server
  health                     Check gateway health
  clear-session <id>         Delete a session's conversation history
  token <subject> [--ttl D]  Mint a client token (default ttl 24h)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "clear-session":
		err = runClearSession(ctx, os.Args[2:])
	case "token":
		err = runToken(os.Stdout, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (string, *config.Config, error) {
	path := config.DefaultPath()
	cfg, err := config.Load(path)
	if err != nil {
		return path, nil, fmt.Errorf("loading config: %w", err)
	}
	return path, cfg, nil
}

func runServe(ctx context.Context) error {
	color.New(color.FgCyan).Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	configPath, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(os.Stdout, cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	line := func(label, value string) {
		green.Print("    ▶ ")
		fmt.Printf("%-10s %s\n", label+":", value)
	}
	line("Config", configPath)
	line("HTTP", cfg.Server.HTTPAddr)
	line("Model", cfg.LLM.Provider+" "+cfg.LLM.Model)
	line("Push", cfg.Push.Backend)
	if cfg.Auth.JWTSecret == "" {
		yellow.Println("    ! auth disabled, set auth.jwt_secret to require tokens")
	}
	fmt.Println()

	logger.Info("starting scribe-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"provider", cfg.LLM.Provider,
		"push_backend", cfg.Push.Backend,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	return gw.Run(ctx)
}

func runHealth(ctx context.Context) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	fmt.Println("healthy")
	return nil
}

// runClearSession works on the database directly so it also works while the
// gateway is down.
func runClearSession(ctx context.Context, args []string) error {
	if len(args) != 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: scribe-gateway clear-session <session-id>")
	}
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(cfg.Database.ResolvedPath())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ClearHistory(ctx, args[0]); err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("cleared session %s\n", args[0])
	return nil
}

func runToken(out io.Writer, args []string) error {
	subject, ttl, err := parseTokenArgs(args)
	if err != nil {
		return err
	}
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not set")
	}
	return writeToken(out, []byte(cfg.Auth.JWTSecret), subject, ttl)
}

func writeToken(out io.Writer, secret []byte, subject string, ttl time.Duration) error {
	v, err := auth.NewJWTVerifier(secret)
	if err != nil {
		return err
	}
	token, err := v.Generate(subject, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// parseTokenArgs accepts "<subject>" with an optional "--ttl D" or "--ttl=D".
func parseTokenArgs(args []string) (string, time.Duration, error) {
	var subject string
	ttl := 24 * time.Hour

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var raw string
		switch {
		case arg == "--ttl":
			if i+1 >= len(args) {
				return "", 0, fmt.Errorf("--ttl requires a value")
			}
			raw = args[i+1]
			i++
		case strings.HasPrefix(arg, "--ttl="):
			raw = strings.TrimPrefix(arg, "--ttl=")
		case strings.HasPrefix(arg, "-"):
			return "", 0, fmt.Errorf("unknown flag: %s", arg)
		case subject == "":
			subject = arg
			continue
		default:
			return "", 0, fmt.Errorf("unexpected argument: %s", arg)
		}

		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return "", 0, fmt.Errorf("invalid --ttl %q", raw)
		}
		ttl = d
	}

	if strings.TrimSpace(subject) == "" {
		return "", 0, fmt.Errorf("usage: scribe-gateway token <subject> [--ttl 24h]")
	}
	return subject, ttl, nil
}
