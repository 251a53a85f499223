package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/state"
)

var (
	// Global flags
	verbose bool
	output  string
	baseDir string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lore",
	Short: "Knowledge compounding for coding-agent sessions",
	Long: `lore captures what your coding agent does, distills it into durable
skills and small instincts, and keeps your project documents in sync.

Core Commands:
  observe      Record an observation
  tail         Show recent observations
  skill        Manage skill documents
  instinct     Manage instincts
  apply        Apply a structured change payload
  autolearn    Evaluate an idle signal and maybe distill
  sync         Regenerate managed document blocks
  status       Show current state

Sessions leave observations behind. Observations compound into skills.
Skills make the next session better.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
		recordLastCommand(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Data directory (default: .agents/lore)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .lore/config.yaml)")
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv("LORE_CONFIG", path)
}

// recordLastCommand remembers the invoked command in the state file.
// Best-effort: a failure here never blocks the command itself.
func recordLastCommand(cmd *cobra.Command) {
	name := cmd.Name()
	if name == "help" || name == "completion" || name == "version" {
		return
	}
	cfg, err := loadConfig()
	if err != nil {
		return
	}
	_ = state.Update(cfg.StatePath(), func(st *state.State) {
		st.LastCommand = &state.CommandRecord{
			Name: commandPath(cmd),
			At:   time.Now().UTC(),
		}
	})
}

// commandPath returns the invoked subcommand path without the binary name.
func commandPath(cmd *cobra.Command) string {
	return strings.TrimSpace(strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()))
}

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}
