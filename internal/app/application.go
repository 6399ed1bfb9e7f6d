package app

import (
	"log/slog"

	"timeline.metlink.nz/internal/config"
	"timeline.metlink.nz/internal/metlink"
	"timeline.metlink.nz/internal/timeline"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware: server settings, the domain configuration, a logger,
// the upstream client and one timeline coordinator per watched direction.
type Application struct {
	Config       Config
	Timeline     *config.Config
	Logger       *slog.Logger
	Client       *metlink.Client
	Coordinators map[int]*timeline.Coordinator
}

// Config holds the server-level settings for the Application: the network
// port to listen on, the name of the current operating environment
// (development, staging, production, etc.) and the accepted API keys for
// the exposed surface. These are read from command-line flags at startup.
type Config struct {
	Port    int
	Env     string
	ApiKeys []string
}

// Shutdown stops every coordinator and waits for their poll loops to exit.
func (app *Application) Shutdown() {
	for _, c := range app.Coordinators {
		c.Shutdown()
	}
}
