package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/mlconsole/internal/stores"
)

// startupTimeout bounds the session check, the login and the first refresh.
const startupTimeout = 15 * time.Second

// ErrNotLoggedIn is returned when the stored token is missing or rejected
// and no password was given.
var ErrNotLoggedIn = errors.New("not logged in (run with -user and set MLCONSOLE_PASSWORD)")

// bootstrap checks the session, logs in when needed and loads every store
// once before polling starts. An unreachable master is fatal. A partial
// refresh is not: the pollers retry and the views show what failed.
func bootstrap(ctx context.Context, sc *stores.Context, username, password string, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := sc.Auth.Check(ctx); err != nil {
		return fmt.Errorf("reach master: %w", err)
	}
	if !sc.Auth.Authenticated() {
		if username == "" || password == "" {
			return ErrNotLoggedIn
		}
		if err := sc.Auth.Login(ctx, username, password); err != nil {
			return fmt.Errorf("log in as %s: %w", username, err)
		}
	}

	started := time.Now()
	if err := sc.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial refresh incomplete")
		return nil
	}
	logger.Debug().Dur("took", time.Since(started)).Msg("initial refresh complete")
	return nil
}
