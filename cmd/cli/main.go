package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/assistant"
	"github.com/dvloznov/family-finance/internal/bootstrap"
	"github.com/dvloznov/family-finance/internal/config"
	"github.com/dvloznov/family-finance/internal/export"
	"github.com/dvloznov/family-finance/internal/llm"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/notify"
	"github.com/dvloznov/family-finance/internal/notionsync"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "summary":
		runSummary(log)
	case "sync-notion":
		runSyncNotion(log)
	case "export":
		runExport(log)
	case "email":
		runEmail(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Family Finance CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat          Send one message to the assistant")
	fmt.Println("  summary       Print a family's income, expenses and balance")
	fmt.Println("  sync-notion   Mirror a family's transactions into a Notion database")
	fmt.Println("  export        Export a family's transactions to CSV in GCS")
	fmt.Println("  email         Send an account email (waitlist, password-change, admin-new-user)")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nEvery command accepts -config PATH (or FINANCE_CONFIG).")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// command is the setup shared by every subcommand.
type command struct {
	fs         *flag.FlagSet
	configPath *string
}

func newCommand(name string) *command {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &command{
		fs:         fs,
		configPath: fs.String("config", os.Getenv("FINANCE_CONFIG"), "Path to YAML config file"),
	}
}

// load parses the flags, reads the config and returns a logger built from it.
func (c *command) load(log zerolog.Logger) (*config.Config, zerolog.Logger) {
	c.fs.Parse(os.Args[2:])

	cfg, err := config.Load(*c.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	configured, err := logger.NewWithConfig(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}
	return cfg, configured
}

func openStore(ctx context.Context, log zerolog.Logger, cfg *config.Config) store.Store {
	st, err := bootstrap.OpenStore(ctx, cfg.Store, cfg.Email.AdminEmail)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	return st
}

// familyOf returns explicit, or the family of userID.
func familyOf(ctx context.Context, log zerolog.Logger, st store.UserStore, explicit, userID string) string {
	if explicit != "" {
		return explicit
	}
	if userID == "" {
		log.Fatal().Msg("Error: -family or -user is required")
	}
	familyID, err := st.FamilyIDForUser(ctx, userID)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", userID).Msg("Failed to resolve family")
	}
	return familyID
}

func parseRange(log zerolog.Logger, startStr, endStr string) (civil.Date, civil.Date) {
	if startStr == "" || endStr == "" {
		log.Fatal().Msg("Error: -start-date and -end-date are required")
	}
	start, err := civil.ParseDate(startStr)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", startStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
	}
	end, err := civil.ParseDate(endStr)
	if err != nil {
		log.Fatal().Err(err).Str("end_date", endStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		log.Fatal().
			Str("start_date", startStr).
			Str("end_date", endStr).
			Msg("Error: end-date must not be before start-date")
	}
	return start, end
}

func printJSON(log zerolog.Logger, v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

func runChat(log zerolog.Logger) {
	cmd := newCommand("chat")
	userID := cmd.fs.String("user", "", "User ID sending the message (required)")
	familyID := cmd.fs.String("family", "", "Family ID (defaults to the user's family)")
	message := cmd.fs.String("message", "", "Message to send (required)")
	conversationID := cmd.fs.String("conversation", "", "Conversation ID to continue")
	cfg, log := cmd.load(log)

	if *userID == "" || *message == "" {
		log.Fatal().Msg("Usage: cli chat -user ID -message TEXT")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st := openStore(ctx, log, cfg)
	defer st.Close()

	user, err := st.GetUser(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", *userID).Msg("Failed to load user")
	}

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("Failed to create LLM client")
	}

	transport, err := bootstrap.NewTransport(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create email transport")
	}
	// Alerts are sent inline; there is no queue in a one-shot process.
	alerts := notify.NewInlineDispatcher(st, notify.NewService(transport, cfg.Email.AppURL))

	exec, err := assistant.NewExecutors(st, alerts, assistant.WithDedupWindow(cfg.Assistant.DedupWindow))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build tool executors")
	}
	orchestrator := assistant.NewOrchestrator(st, client, exec, nil, assistant.Options{
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
		HistoryLimit: cfg.Assistant.HistoryLimit,
		LLMTimeout:   cfg.LLM.Timeout,
	})
	defer orchestrator.Wait()

	resp, err := orchestrator.HandleTurn(ctx, user, assistant.TurnRequest{
		Message:        *message,
		FamilyID:       *familyID,
		ConversationID: *conversationID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Chat turn failed")
	}
	printJSON(log, resp)
}

func runSummary(log zerolog.Logger) {
	cmd := newCommand("summary")
	userID := cmd.fs.String("user", "", "User whose family to summarise")
	familyID := cmd.fs.String("family", "", "Family ID")
	period := cmd.fs.String("period", "month", "week, month, year or all")
	cfg, log := cmd.load(log)

	ctx := logger.WithContext(context.Background(), log)
	st := openStore(ctx, log, cfg)
	defer st.Close()

	fam := familyOf(ctx, log, st, *familyID, *userID)
	summary, err := assistant.Summarize(ctx, st, fam, *period, civil.DateOf(time.Now()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to summarise transactions")
	}

	fmt.Printf("\n=== Resumo (%s) ===\n", summary.Period)
	fmt.Printf("Receitas:   %s\n", notify.FormatBRL(summary.Income))
	fmt.Printf("Despesas:   %s\n", notify.FormatBRL(summary.Expenses))
	fmt.Printf("Saldo:      %s\n", notify.FormatBRL(summary.Balance))
	fmt.Printf("Transações: %d\n\n", summary.TransactionCount)
}

func runSyncNotion(log zerolog.Logger) {
	cmd := newCommand("sync-notion")
	userID := cmd.fs.String("user", "", "User whose family to sync")
	familyID := cmd.fs.String("family", "", "Family ID")
	startDateStr := cmd.fs.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := cmd.fs.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	dryRun := cmd.fs.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	cfg, log := cmd.load(log)

	if cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: notion.token and notion.database_id are required")
	}
	start, end := parseRange(log, *startDateStr, *endDateStr)

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st := openStore(ctx, log, cfg)
	defer st.Close()
	fam := familyOf(ctx, log, st, *familyID, *userID)

	log.Info().
		Str("family_id", fam).
		Str("start_date", start.String()).
		Str("end_date", end.String()).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	syncer := notionsync.NewSyncer(st, notionsync.NewNotionClient(cfg.Notion.Token), cfg.Notion.DatabaseID)
	stats, err := syncer.SyncTransactions(ctx, fam, start, end, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}
	printJSON(log, stats)
}

func runExport(log zerolog.Logger) {
	cmd := newCommand("export")
	userID := cmd.fs.String("user", "", "User whose family to export")
	familyID := cmd.fs.String("family", "", "Family ID")
	startDateStr := cmd.fs.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := cmd.fs.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	cfg, log := cmd.load(log)

	if cfg.Export.Bucket == "" {
		log.Fatal().Msg("Error: export.bucket is required")
	}
	start, end := parseRange(log, *startDateStr, *endDateStr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st := openStore(ctx, log, cfg)
	defer st.Close()
	fam := familyOf(ctx, log, st, *familyID, *userID)

	gcs, err := export.NewGCSStorage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS client")
	}
	defer gcs.Close()

	exporter := export.NewExporter(st, gcs, cfg.Export.Bucket, export.WithLinkTTL(cfg.Export.URLExpiry))
	res, err := exporter.Export(ctx, fam, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	printJSON(log, res)
}

func runEmail(log zerolog.Logger) {
	cmd := newCommand("email")
	kind := cmd.fs.String("kind", "", "waitlist, password-change or admin-new-user (required)")
	to := cmd.fs.String("to", "", "Recipient address (defaults to email.admin_email for admin-new-user)")
	name := cmd.fs.String("name", "", "Recipient name, or the new user's name for admin-new-user")
	userEmail := cmd.fs.String("user-email", "", "New user's email for admin-new-user")
	cfg, log := cmd.load(log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	transport, err := bootstrap.NewTransport(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create email transport")
	}
	mailer := notify.NewService(transport, cfg.Email.AppURL)

	var res notify.Result
	switch *kind {
	case "waitlist":
		res = mailer.SendWaitlistNotification(ctx, *to, notify.Waitlist{Name: *name})
	case "password-change":
		res = mailer.SendPasswordChange(ctx, *to, notify.PasswordChange{Name: *name})
	case "admin-new-user":
		recipient := *to
		if recipient == "" {
			recipient = cfg.Email.AdminEmail
		}
		res = mailer.SendAdminNewUser(ctx, recipient, notify.AdminNewUser{UserName: *name, UserEmail: *userEmail})
	default:
		log.Fatal().Str("kind", *kind).Msg("Error: -kind must be waitlist, password-change or admin-new-user")
	}

	if !res.Success {
		log.Fatal().Str("error", res.Error).Msg("Email not sent")
	}
	fmt.Println("Email sent.")
}
