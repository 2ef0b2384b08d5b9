package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tourvista/go-tour-client/auth"
	"github.com/tourvista/go-tour-client/client"
	"github.com/tourvista/go-tour-client/internal/config"
	"github.com/tourvista/go-tour-client/payments"
	"github.com/tourvista/go-tour-client/session"
	"github.com/tourvista/go-tour-client/session/filestore"
	"github.com/tourvista/go-tour-client/token"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("tourclient failed")
	}
}

func run() error {
	email := flag.String("email", "", "account email for sign-in")
	password := flag.String("password", "", "account password for sign-in")
	purchase := flag.String("purchase", "", "purchase id to check payment for")
	flag.Parse()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := filestore.New(c.GetCredentialsFile())
	if err != nil {
		return fmt.Errorf("open credentials store: %w", err)
	}
	store := session.NewStore(storage, logger)
	store.Initialize()

	watcher, err := filestore.NewWatcher(c.GetCredentialsFile())
	if err != nil {
		logger.Warn().Err(err).Msg("credentials file watcher unavailable")
	} else {
		defer watcher.Close()
		store.Watch(watcher)
	}

	api := client.New(c.GetAPIBaseURL(), client.WithTimeout(c.GetHTTPTimeout()))
	authService := auth.NewService(store, api, logger)
	refresher := token.NewRefresher(store, api, logger)

	backoffBase := c.GetBackoffBase()
	reconciler := payments.NewReconciler(store, refresher, api, logger,
		payments.WithPageSize(c.GetLedgerPageSize()),
		payments.WithMaxRetries(c.GetMaxRetries()),
		payments.WithBackoff(func(attempt int) time.Duration {
			return backoffBase << (attempt - 1)
		}),
	)

	if !store.IsAuthenticated() {
		if *email == "" || *password == "" {
			return fmt.Errorf("not signed in: -email and -password are required")
		}
		identity, err := authService.SignIn(ctx, *email, *password)
		if err != nil {
			return fmt.Errorf("sign-in: %w", err)
		}
		logger.Info().Str("username", identity.Username).Msg("session established")
	}

	if identity, ok := authService.CurrentIdentity(); ok {
		fmt.Printf("Signed in as %s <%s> (%s)\n", identity.Username, identity.Email, identity.Role)
	}

	if *purchase == "" {
		return nil
	}

	outcome, err := reconciler.CheckPayment(ctx, *purchase)
	if err != nil {
		return fmt.Errorf("payment check interrupted: %w", err)
	}

	switch outcome.Status {
	case payments.StatusPaid:
		fmt.Printf("Purchase %s: payment confirmed\n", *purchase)
	case payments.StatusNotPaid:
		fmt.Printf("Purchase %s: no completed payment found\n", *purchase)
	case payments.StatusSessionExpired:
		// The store is already signed out; the user must authenticate
		// again before retrying.
		fmt.Println("Session expired, please sign in again")
	case payments.StatusError:
		fmt.Printf("Purchase %s: check failed: %v\n", *purchase, outcome.Err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
