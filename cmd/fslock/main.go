package main

import (
	"context"
	"os"

	"github.com/bashhack/fslock/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	app := NewDefaultApp(versionInfo)

	// Interrupts are handled by the lock guard while a lock is held; outside
	// of one the default signal behaviour applies.
	code := app.Execute(context.Background(), os.Args[1:])
	app.exit(code)
}
