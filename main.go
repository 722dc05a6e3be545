package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rundapp-engine/internal/access"
	"rundapp-engine/internal/challenges"
	"rundapp-engine/internal/config"
	"rundapp-engine/internal/database"
	"rundapp-engine/internal/ethereum"
	"rundapp-engine/internal/handlers"
	"rundapp-engine/internal/metrics"
	"rundapp-engine/internal/middleware"
	"rundapp-engine/internal/notify"
	"rundapp-engine/internal/strava"
	"rundapp-engine/internal/worker"
)

func main() {
	// Define CLI flags
	listSubscriptions := flag.Bool("list-strava-subscriptions", false, "List all Strava webhook subscriptions")
	deleteSubscription := flag.String("delete-strava-subscription", "", "Delete a Strava webhook subscription by ID")
	createSubscription := flag.Bool("create-strava-subscription", false, "Create a Strava webhook subscription")

	flag.Parse()

	// Check if any CLI command was requested
	if *listSubscriptions || *deleteSubscription != "" || *createSubscription {
		runCLI(*listSubscriptions, *deleteSubscription, *createSubscription)
		return
	}

	// Otherwise, start the server
	runServer()
}

func runCLI(listSubs bool, deleteSub string, createSub bool) {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	client := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret)
	ctx := context.Background()

	switch {
	case listSubs:
		handleListSubscriptions(ctx, client)
	case deleteSub != "":
		handleDeleteSubscription(ctx, client, deleteSub)
	case createSub:
		handleCreateSubscription(ctx, client, cfg)
	}
}

func handleListSubscriptions(ctx context.Context, client *strava.Client) {
	subscriptions, err := client.ListSubscriptions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list subscriptions: %v\n", err)
		os.Exit(1)
	}

	if len(subscriptions) == 0 {
		fmt.Println("No active subscriptions found.")
		return
	}

	fmt.Printf("Found %d subscription(s):\n\n", len(subscriptions))
	for _, sub := range subscriptions {
		fmt.Printf("ID: %d\n", sub.ID)
		fmt.Printf("  Application ID: %d\n", sub.ApplicationID)
		fmt.Printf("  Callback URL: %s\n", sub.CallbackURL)
		fmt.Printf("  Created: %s\n", sub.CreatedAt)
		fmt.Printf("  Updated: %s\n", sub.UpdatedAt)
		fmt.Println()
	}
}

func handleDeleteSubscription(ctx context.Context, client *strava.Client, idStr string) {
	subscriptionID, err := strconv.Atoi(idStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid subscription ID: %s\n", idStr)
		os.Exit(1)
	}

	fmt.Printf("Deleting subscription %d...\n", subscriptionID)

	if err := client.DeleteSubscription(ctx, subscriptionID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Subscription deleted successfully!")
}

func handleCreateSubscription(ctx context.Context, client *strava.Client, cfg *config.Config) {
	callbackURL := fmt.Sprintf("https://%s/vendors/strava/webhook", cfg.Domain)

	fmt.Printf("Creating webhook subscription...\n")
	fmt.Printf("Callback URL: %s\n\n", callbackURL)

	subscription, err := client.CreateSubscription(ctx, callbackURL, cfg.StravaVerifyToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Subscription created successfully!")
	fmt.Printf("  ID: %d\n", subscription.ID)
}

func runServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting rundapp-engine server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		logger.Error("Failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	logger.Info("Database opened successfully")

	// Create clients and the signing key
	stravaClient := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret)
	oracle := ethereum.NewOracle(cfg.EthRPCURL, cfg.ContractAddress)

	signer, err := ethereum.NewSigner(cfg.SignerPrivateKey)
	if err != nil {
		logger.Error("Failed to load signing key", "error", err)
		os.Exit(1)
	}
	logger.Info("Signing key loaded", "signer_address", signer.Address(), "contract", cfg.ContractAddress)

	// Create services
	mailer := notify.NewMailer(cfg.SendgridAPIKey, cfg.SenderEmailAddress, cfg.StravaClientID, cfg.Domain, db)
	accessManager := access.NewManager(db, stravaClient)
	issuer := challenges.NewIssuer(db, oracle, mailer, cfg.OracleConfirmationDelay)
	validator := challenges.NewValidator(db, accessManager, stravaClient, mailer)
	claims := challenges.NewClaims(db, oracle, signer)

	// Create handlers
	webhookHandler := handlers.NewWebhookHandler(db, cfg)
	authorizeHandler := handlers.NewAuthorizeHandler(stravaClient, db)
	challengesHandler := handlers.NewChallengesHandler(issuer, claims, db)

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Strava vendor endpoints
	mux.Handle("/vendors/strava/webhook", middleware.WrapHandler(metrics.EndpointWebhook, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// GET = subscription verification
			webhookHandler.HandleVerification(w, r)
		} else if r.Method == http.MethodPost {
			// POST = event
			webhookHandler.HandleEvent(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/vendors/strava/authorize", middleware.WrapHandler(metrics.EndpointAuthorize, authorizeHandler.HandleAuthorize))

	// Challenge endpoints
	mux.Handle("/challenges/actions/create", middleware.WrapHandler(metrics.EndpointIssue, challengesHandler.HandleIssue))
	mux.Handle("/challenges/actions/claim", middleware.WrapHandler(metrics.EndpointClaim, challengesHandler.HandleClaim))
	mux.Handle("/challenges/", middleware.WrapHandler(metrics.EndpointRecordPayment, challengesHandler.HandleRecordPayment))

	// Health check endpoint
	mux.Handle("/health", middleware.WrapHandler(metrics.EndpointHealth, func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(); err != nil {
			http.Error(w, "Unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start webhook worker in background
	workerInstance := worker.NewWorker(db, validator, db)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go func() {
		if err := workerInstance.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Webhook worker failed", "error", err)
		}
	}()

	// Start queue depth collector if metrics are enabled
	if cfg.MetricsEnabled {
		go func() {
			logger.Info("Starting queue depth collector")
			metrics.StartQueueDepthCollector(workerCtx, db, 15*time.Second)
		}()
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	// Stop worker
	workerCancel()

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
