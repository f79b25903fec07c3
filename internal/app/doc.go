// Package app provides the orchestration layer for mlconsole.
//
// # Overview
//
// This package is the composition root. It wires configuration, logging,
// metrics, error reporting, the API client and the stores together, then
// hands the stores to the UI.
//
// # Startup
//
//  1. Load config.toml and the local prefs file
//  2. Set up zerolog (file, stderr or Loki) and register poller metrics
//  3. Serve /metrics when metrics_addr is set; init Sentry when sentry_dsn is set
//  4. Build the API client with the stored token and the stores context
//  5. Check the session, logging in with -user when the token is missing
//  6. Refresh every store once, concurrently
//  7. Start polling and run the TUI until the user quits or ctx is cancelled
//
// # Components
//
//   - app.go: Run and Options
//   - startup.go: session check, login and initial refresh
//   - metrics.go: Prometheus endpoint
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()      Read config.toml
//	       ├─────> logging.Setup()    zerolog writers
//	       ├─────> errs.New()         Notifications, Sentry
//	       ├─────> stores.New()       One store per resource
//	       ├─────> bootstrap()        Auth.Check, Login, Refresh
//	       ├─────> StartPolling()     Background pollers
//	       └─────> ui.Run()           TUI (blocks)
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Config file invalid
//   - Master unreachable during the session check
//   - No valid token and no credentials to log in with
//
// Recoverable errors (reported to errs.Handler, polling continues):
//   - Failed initial refresh of a single store
//   - Poll and write failures
//
// A request rejected with 401 after startup expires the session. The stores
// reset and the UI shows the session as logged out.
//
// # Usage Example
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		log.Fatalf("mlconsole failed: %v", err)
//	}
package app
