// Command compintel analyzes competitor websites: it extracts
// structured facts, scores them on the strategy and complexity axes,
// validates them against previously analyzed competitors and stores the
// result in the warehouse.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	clog "github.com/smallnest/compintel/log"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logFile    string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "compintel",
	Short: "Automated competitive intelligence analysis",
	Long: "Compintel extracts structured facts from a competitor's website,\n" +
		"scores them on a two-axis positioning map and generates strategic\n" +
		"insights grounded in previously analyzed competitors.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "config.yaml", "Config file path")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "Also write logs to this file")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.Version = version
}

// newLogger builds the run logger from the root flags. The returned
// cleanup closes the log file, if any.
func newLogger() (clog.Logger, func(), error) {
	level := clog.LogLevelInfo
	if rootFlags.verbose {
		level = clog.LogLevelDebug
	}
	if rootFlags.logFile != "" {
		logger, f, err := clog.NewFileLogger(rootFlags.logFile, level)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() { f.Close() }, nil
	}
	return clog.NewDefaultLogger(level), func() {}, nil
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
