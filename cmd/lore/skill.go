package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/lore/internal/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage skill documents",
	Long: `Skills are durable procedure documents with a machine-owned body and a
human-owned notes section. Updates require a complete replacement body;
truncations and diff fragments are rejected.`,
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skill documents",
	RunE:  runSkillList,
}

var skillShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one skill document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillShow,
}

var (
	skillDescription string
	skillBodyFile    string
	skillTags        []string
	skillLicense     string
	skillCompat      string
)

var skillAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or update a skill document",
	Long: `Create a skill, or replace an existing skill's body. The body comes
from --body-file, or from stdin when the flag is "-" or omitted.

Examples:
  lore skill add release-checklist --description "Cut a release safely" --body-file checklist.md
  cat body.md | lore skill add release-checklist --description "Cut a release safely"`,
	Args: cobra.ExactArgs(1),
	RunE: runSkillAdd,
}

var skillDeprecateReason string

var skillDeprecateCmd = &cobra.Command{
	Use:   "deprecate <name>",
	Short: "Mark a skill as deprecated",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillDeprecate,
}

func init() {
	skillAddCmd.Flags().StringVarP(&skillDescription, "description", "d", "", "One-line description")
	skillAddCmd.Flags().StringVar(&skillBodyFile, "body-file", "", "File holding the complete body (\"-\" for stdin)")
	skillAddCmd.Flags().StringSliceVar(&skillTags, "tags", nil, "Tags (comma-separated)")
	skillAddCmd.Flags().StringVar(&skillLicense, "license", "", "License identifier")
	skillAddCmd.Flags().StringVar(&skillCompat, "compat", "", "Compatibility note")
	skillDeprecateCmd.Flags().StringVar(&skillDeprecateReason, "reason", "", "Why the skill is deprecated")

	skillCmd.AddCommand(skillListCmd, skillShowCmd, skillAddCmd, skillDeprecateCmd)
	rootCmd.AddCommand(skillCmd)
}

func runSkillList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	docs, err := a.repo.ScanAll()
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		return printJSON(docs)
	}
	if len(docs) == 0 {
		fmt.Println("No skills recorded yet.")
		return nil
	}
	for _, d := range docs {
		marker := " "
		if d.Deprecated() {
			marker = "x"
		}
		fmt.Printf("%s %-30s v%-3d %s\n", marker, d.Name, d.Version, d.Description)
	}
	return nil
}

func runSkillShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	doc, err := a.repo.Get(args[0])
	if err != nil {
		return err
	}
	if a.jsonOutput() {
		return printJSON(doc)
	}
	fmt.Printf("%s (v%d, updated %s)\n%s\n\n%s\n",
		doc.Name, doc.Version, doc.UpdatedAt.Format(time.RFC3339), doc.Description, doc.Body)
	return nil
}

func runSkillAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	body, err := readBody(skillBodyFile)
	if err != nil {
		return err
	}

	meta := &skills.Meta{License: skillLicense, Compatibility: skillCompat, Tags: skillTags}
	doc, err := a.repo.Upsert(args[0], skillDescription, body, meta)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s v%d\n", doc.Name, doc.Version)
	return nil
}

func runSkillDeprecate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	doc, err := a.repo.Deprecate(args[0], skillDeprecateReason)
	if err != nil {
		return err
	}
	fmt.Printf("Deprecated %s (now v%d)\n", doc.Name, doc.Version)
	return nil
}

func readBody(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read body from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
