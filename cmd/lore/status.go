package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lore status",
	Long: `Display the current state of the knowledge base: observation count,
skills, instincts, and autolearn bookkeeping.

Examples:
  lore status
  lore status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	BaseDir          string     `json:"base_dir"`
	Observations     int        `json:"observations"`
	TailHash         string     `json:"tail_hash,omitempty"`
	Skills           int        `json:"skills"`
	ActiveInstincts  int        `json:"active_instincts"`
	LastCommand      string     `json:"last_command,omitempty"`
	AutolearnEnabled bool       `json:"autolearn_enabled"`
	LastRunAt        *time.Time `json:"last_run_at,omitempty"`
	LastRunSession   string     `json:"last_run_session,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	count, hash, err := a.log.Count()
	if err != nil {
		return err
	}
	docs, err := a.repo.ScanAll()
	if err != nil {
		return err
	}
	active, err := a.store.Active()
	if err != nil {
		return err
	}
	st, err := state.Load(a.cfg.StatePath())
	if err != nil {
		return err
	}

	out := statusOutput{
		BaseDir:          a.cfg.BaseDir,
		Observations:     count,
		TailHash:         hash,
		Skills:           len(docs),
		ActiveInstincts:  len(active),
		AutolearnEnabled: a.cfg.Autolearn.Enabled,
		LastRunSession:   st.Autolearn.LastRunSession,
	}
	if st.LastCommand != nil {
		out.LastCommand = st.LastCommand.Name
	}
	if !st.Autolearn.LastRunAt.IsZero() {
		t := st.Autolearn.LastRunAt
		out.LastRunAt = &t
	}

	if a.jsonOutput() {
		return printJSON(out)
	}

	fmt.Printf("Base directory:    %s\n", out.BaseDir)
	fmt.Printf("Observations:      %d\n", out.Observations)
	fmt.Printf("Skills:            %d\n", out.Skills)
	fmt.Printf("Active instincts:  %d\n", out.ActiveInstincts)
	fmt.Printf("Autolearn:         enabled=%t\n", out.AutolearnEnabled)
	if out.LastRunAt != nil {
		fmt.Printf("Last run:          %s (session %s)\n",
			out.LastRunAt.Format(time.RFC3339), out.LastRunSession)
	} else {
		fmt.Println("Last run:          never")
	}
	return nil
}
