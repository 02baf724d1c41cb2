package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/benj-n/regami/internal/router"
	"github.com/benj-n/regami/internal/ws"
	"github.com/benj-n/regami/pkg/config"
	"github.com/benj-n/regami/pkg/email"
	"github.com/benj-n/regami/pkg/firebase"
	"github.com/benj-n/regami/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase. Push notifications are optional; without
	// credentials the server runs with pushes disabled.
	ctx := context.Background()
	fbApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Firebase unavailable, push notifications disabled: %v", err)
		fbApp = nil
	}

	// Email sender. Optional as well; without an SMTP host emails are dropped.
	var mailer *email.Sender
	if cfg.SMTPHost != "" {
		mailer = email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom)
	} else {
		log.Println("SMTP not configured, transactional emails disabled.")
	}

	// Live connection registry
	hub := ws.NewHub()
	defer hub.Shutdown()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db, cfg, fbApp, mailer, hub)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
