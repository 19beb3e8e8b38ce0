// Command kanbmine is a small harness around the client library: it logs in
// with credentials from the environment and prints the open issues, mainly
// useful for verifying server connectivity and configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	kanbmine "github.com/ArmentaBautista/Kanbmine"
	"github.com/ArmentaBautista/Kanbmine/config"
	"github.com/ArmentaBautista/Kanbmine/store/sqlitestore"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search standard locations)")
	project := flag.Int("project", 0, "filter issues by project id")
	flag.Parse()

	if err := run(*configPath, *project); err != nil {
		fmt.Fprintln(os.Stderr, "kanbmine:", err)
		os.Exit(1)
	}
}

func run(configPath string, projectID int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)

	client := kanbmine.New(cfg.Redmine.BaseURL,
		kanbmine.WithTimeout(cfg.Redmine.Timeout),
		kanbmine.WithMaxRetries(cfg.Redmine.MaxRetries),
		kanbmine.WithCache(cfg.Redmine.CacheTTL),
		kanbmine.WithPageSize(cfg.Redmine.PageSize),
		kanbmine.WithCircuitBreaker(kanbmine.CircuitBreakerConfig{
			FailureThreshold: cfg.Redmine.BreakerThreshold,
			RecoveryTimeout:  cfg.Redmine.BreakerCooldown,
		}),
		kanbmine.WithZerolog(logger),
	)
	if err := client.ValidationError(); err != nil {
		return err
	}

	store, err := sqlitestore.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	session := kanbmine.NewSession(client, store,
		kanbmine.WithSessionLogger(kanbmine.NewZerologLogger(logger)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !session.IsAuthenticated(ctx) {
		username := os.Getenv("KANBMINE_USERNAME")
		password := os.Getenv("KANBMINE_PASSWORD")
		if username == "" || password == "" {
			return fmt.Errorf("no stored session; set KANBMINE_USERNAME and KANBMINE_PASSWORD")
		}
		res := session.Login(ctx, username, password)
		if !res.Success {
			return fmt.Errorf("login failed: %s", res.ErrorMessage)
		}
		logger.Info().Str("user", res.User.FullName()).Msg("logged in")
	}

	filter := kanbmine.NewIssueFilter()
	if projectID > 0 {
		filter.ProjectID = kanbmine.Int(projectID)
	}

	page, err := client.ListIssues(ctx, filter)
	if err != nil {
		return err
	}

	fmt.Printf("%d issues (page %d of %d)\n", page.TotalCount, page.CurrentPage(), page.TotalPages())
	for _, issue := range page.Items {
		status := ""
		if issue.Status != nil {
			status = issue.Status.Name
		}
		fmt.Printf("#%-6d %-12s %s\n", issue.ID, status, issue.Subject)
	}
	return nil
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}
