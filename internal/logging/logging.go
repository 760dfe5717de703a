package logging

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Setup installs the default slog logger on stderr.
func Setup(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose))
}

// New returns a slog logger backed by charmbracelet/log writing to w.
// Terminals get colored text; anything else gets JSON lines.
func New(w io.Writer, verbose bool) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "shipit",
	})

	if verbose {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	if !isTerminal(w) {
		handler.SetFormatter(charmlog.JSONFormatter)
	}

	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
