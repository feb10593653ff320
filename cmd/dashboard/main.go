package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Fortuna Dashboard API
// @version 1.0
// @description Backend-for-frontend serving the Fortuna personal finance dashboard.
// @BasePath /api/v1
// @securityDefinitions.apikey SessionAuth
// @in header
// @name X-Session-ID
// @description Session id returned by /auth/login
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name, args := os.Args[1], os.Args[2:]

	cmd, ok := commands[name]
	if !ok {
		if name != "help" && name != "-h" && name != "--help" {
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
			usage()
			os.Exit(2)
		}
		usage()
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, cfg, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

type command struct {
	summary string
	run     func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"serve":      {"run the dashboard API and WebSocket server", runServe},
	"tui":        {"open the terminal dashboard", runTUI},
	"login":      {"log in and print a DASHBOARD_TOKEN", runLogin},
	"register":   {"create a new user", runRegister},
	"overview":   {"print balances, accounts and recent transactions", runOverview},
	"budgets":    {"print budget progress", runBudgets},
	"rules":      {"list or add auto-categorisation rules", runRules},
	"bills":      {"list or add bills", runBills},
	"transfer":   {"move money between two accounts", runTransfer},
	"import-csv": {"upload a CSV statement from a file or s3://bucket/key", runImportCSV},
}

var commandOrder = []string{"serve", "tui", "login", "register", "overview", "budgets", "rules", "bills", "transfer", "import-csv"}

func usage() {
	var b strings.Builder
	b.WriteString("Usage: dashboard <command> [flags]\n\nCommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(&b, "  %-11s %s\n", name, commands[name].summary)
	}
	b.WriteString("  help        show this message\n\n")
	b.WriteString("Run 'dashboard <command> -h' for a command's flags.\n")
	b.WriteString("Commands other than serve, login and register need DASHBOARD_TOKEN or -email/-password.\n")
	fmt.Fprint(os.Stderr, b.String())
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
