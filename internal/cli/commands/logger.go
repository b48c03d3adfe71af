package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// newLogger builds the command logger. Verbose enables debug output;
// otherwise only warnings and errors reach stderr so reports stay clean on
// stdout.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
