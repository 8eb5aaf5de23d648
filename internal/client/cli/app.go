// Package cli is the interactive shell of the DIPCP client: a thin
// read-eval-print loop over the services. All state lives in the injected
// dependencies; the shell only parses commands and prints results.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dipcp/dipcp/internal/client/config"
	"github.com/dipcp/dipcp/internal/client/events"
	"github.com/dipcp/dipcp/internal/client/github"
	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/ratelimit"
	"github.com/dipcp/dipcp/internal/client/services"
	syncer "github.com/dipcp/dipcp/internal/client/sync"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
)

// Deps carries everything the shell needs, wired by the entrypoint.
type Deps struct {
	Config    *config.Config
	Log       logging.Logger
	Bus       *events.Bus
	Guard     *ratelimit.Guard
	Gateway   *github.Gateway
	Syncer    *syncer.Syncer
	Session   *services.Session
	Tracking  *services.Tracking
	Workspace *services.Workspace
	Projects  *services.Projects
	Poller    *services.WorkflowPoller
}

// App is the REPL state: the injected services plus the current login and
// repository selection.
type App struct {
	cfg       *config.Config
	log       logging.Logger
	bus       *events.Bus
	guard     *ratelimit.Guard
	gateway   *github.Gateway
	syncer    *syncer.Syncer
	session   *services.Session
	tracking  *services.Tracking
	workspace *services.Workspace
	projects  *services.Projects
	poller    *services.WorkflowPoller

	user  *models.User
	owner string
	repo  string

	reader *bufio.Reader
}

func NewApp(d Deps) *App {
	return &App{
		cfg:       d.Config,
		log:       d.Log,
		bus:       d.Bus,
		guard:     d.Guard,
		gateway:   d.Gateway,
		syncer:    d.Syncer,
		session:   d.Session,
		tracking:  d.Tracking,
		workspace: d.Workspace,
		projects:  d.Projects,
		poller:    d.Poller,
		reader:    bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) hasRepo() bool {
	return a.owner != "" && a.repo != ""
}

// prompt renders the status part of the REPL prompt.
func (a *App) prompt() string {
	who := "anonymous"
	if a.isLoggedIn() {
		who = a.user.Login
	}
	if a.hasRepo() {
		return fmt.Sprintf("%s@%s/%s", who, a.owner, a.repo)
	}
	return who
}

// Run restores a saved session if one exists, hooks rate-limit notices into
// the terminal, and enters the REPL until EOF or exit.
func (a *App) Run(ctx context.Context) {
	if user, err := a.session.Restore(ctx); err == nil {
		a.user = user
	} else if !errors.Is(err, common.ErrNotFound) {
		a.log.Warn(ctx, "could not restore session", "error", err.Error())
	}

	id := a.bus.Subscribe(events.TopicRateLimitExceeded, func(payload any) {
		if n, ok := payload.(ratelimit.Notification); ok {
			printlnFn(fmt.Sprintf("API rate limit exceeded, blocked for %s", n.Remaining.Round(time.Second)))
		}
	})
	defer a.bus.Unsubscribe(events.TopicRateLimitExceeded, id)

	printlnFn("DIPCP client (type 'help' for commands)")
	runREPL(ctx, a, a.prompt, bufio.NewScanner(os.Stdin))
}

// splitRepoArg parses "owner/repo".
func splitRepoArg(arg string) (owner, repo string, err error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", arg)
	}
	return parts[0], parts[1], nil
}
