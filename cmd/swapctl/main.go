// Command swapctl runs the swap engine against local files and operates a
// mealswap deployment.
package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alchemorsel/mealswap/pkg/logger"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "swapctl",
		Short:        "Meal swap engine toolbox",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringP("config", "c", "", "mealswap configuration file")
	root.PersistentFlags().String("log-level", "warn", "log level written to stderr (debug shows per-goal engine decisions)")

	root.AddCommand(
		newSuggestCommand(),
		newCatalogCommand(),
		newMigrateCommand(),
		newHealthCommand(),
	)
	return root
}

// newLogger builds a console logger on stderr at the --log-level flag
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.New(logger.Config{
		Level:       level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
