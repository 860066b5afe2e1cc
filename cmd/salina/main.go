// Command salina is a terminal client for the salina dashboard backend.
// It drives the shared session core: login, logout, session inspection,
// and the collaborator insights readout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/salinaworks/salina-go/internal/apiclient"
	"github.com/salinaworks/salina-go/internal/bootstrap"
	"github.com/salinaworks/salina-go/internal/service"
	"github.com/salinaworks/salina-go/internal/session"
	"github.com/salinaworks/salina-go/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(false)
	if err := run(ctx, logger, os.Args[1:]); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func usage() string {
	return `usage: salina <command> [flags]

commands:
  login    -email <email> -password <password>   authenticate and persist the session
  logout                                         destroy the session locally and remotely
  whoami                                         show the restored session user
  status                                         show session state and token validity
  insights                                       print the inspection dashboard summary
`
}

type app struct {
	auth     *service.AuthAPI
	insights *service.InsightsAPI
	manager  *session.Manager
	close    func()
}

func buildApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}

	kv, closeKV, err := bootstrap.OpenKV(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	sessions := store.NewSessionStore(kv)

	clientOpts := []apiclient.Option{
		apiclient.WithTokenSource(sessions),
		apiclient.WithLogger(logger),
		apiclient.WithDefaultTimeout(cfg.API.Timeout),
	}
	if cfg.API.WithCredentials {
		clientOpts = append(clientOpts, apiclient.WithCredentialsByDefault())
	}
	client, err := apiclient.New(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		closeKV()
		return nil, fmt.Errorf("build api client: %w", err)
	}

	auth := service.NewAuthAPI(client, sessions, logger)
	insights := service.NewInsightsAPI(service.InsightsAPIOptions{Client: client, Logger: logger})
	manager := session.NewManager(auth, sessions, logger)

	return &app{
		auth:     auth,
		insights: insights,
		manager:  manager,
		close:    closeKV,
	}, nil
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage())
		return errors.New("missing command")
	}
	command, rest := args[0], args[1:]

	a, err := buildApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.Initialize(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	switch command {
	case "login":
		return a.runLogin(ctx, rest)
	case "logout":
		return a.runLogout(ctx)
	case "whoami":
		return a.runWhoami(ctx)
	case "status":
		return a.runStatus(ctx)
	case "insights":
		return a.runInsights(ctx)
	default:
		fmt.Fprint(os.Stderr, usage())
		return fmt.Errorf("unknown command: %q", command)
	}
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	redirect, err := a.manager.Login(ctx, service.Credentials{Email: *email, Password: *password})
	if err != nil {
		if msg := a.manager.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return err
	}

	state := a.manager.State()
	fmt.Printf("logged in as %s (%s)\n", state.User.Email, state.User.Role)
	fmt.Printf("landing: %s\n", redirect)
	return nil
}

func (a *app) runLogout(ctx context.Context) error {
	a.manager.Logout(ctx)
	fmt.Println("logged out")
	return nil
}

func (a *app) runWhoami(ctx context.Context) error {
	state := a.manager.State()
	if !state.IsAuthenticated {
		return errors.New("not logged in")
	}

	// Reconcile with the backend so a stale cached profile does not lie.
	if err := a.manager.RefreshUser(ctx); err != nil {
		return err
	}
	state = a.manager.State()
	fmt.Printf("%s <%s> role=%s\n", state.User.Name, state.User.Email, state.User.Role)
	return nil
}

func (a *app) runStatus(ctx context.Context) error {
	state := a.manager.State()
	if !state.IsAuthenticated {
		fmt.Println("session: unauthenticated")
		return nil
	}

	fmt.Printf("session: authenticated as %s (%s)\n", state.User.Email, state.User.Role)
	valid, err := a.auth.ValidateToken(ctx, state.Token)
	if err != nil {
		return err
	}
	fmt.Printf("token valid: %t\n", valid)
	return nil
}

func (a *app) runInsights(ctx context.Context) error {
	summary, err := a.insights.DashboardSummary(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s (trained %s)\n", summary.Model.Version, summary.Model.TrainedAt)
	fmt.Printf("federated: client=%s round=%d model_present=%t\n",
		summary.Federated.ClientID, summary.Federated.Round, summary.Federated.ModelPresent)
	fmt.Printf("optimization runs: %d\n", len(summary.History))
	for _, run := range summary.History {
		fmt.Printf("  %s objective=%s predicted=%.1fkg\n", run.ID, run.Objective, run.PredictedKg)
	}
	return nil
}
