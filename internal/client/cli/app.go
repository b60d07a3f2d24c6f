package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/postbridge/postbridge/internal/client/client"
	"github.com/postbridge/postbridge/internal/client/config"
)

// Mode reflects the last known connectivity state shown in the prompt.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// App holds the state of the interactive client: configuration, the API
// transport, the name of the logged-in user, and the connectivity mode.
type App struct {
	config   *config.Config
	api      client.Client
	userName string
	Mode     Mode
	reader   *bufio.Reader
}

// NewApp creates the application with an HTTP API client pointed at the
// configured server endpoint.
func NewApp(c *config.Config) (*App, error) {
	api := client.NewHTTPClient(c.ServerEndpointAddr)
	return &App{config: c, api: api, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// getStatus renders the prompt suffix, e.g. "(alice online)".
func (a *App) getStatus() string {
	s := ""

	if a.userName != "" {
		s = a.userName + " "
	}

	if a.Mode != "" {
		s = s + string(a.Mode)
	}

	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}

	return s
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or ctx is canceled.
func (a *App) Run(ctx context.Context) {
	fmt.Println("Welcome to postbridge (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

// StartOnlineStatusWatcher probes the server readiness endpoint on the given
// interval and flips the connectivity mode shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
