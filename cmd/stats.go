package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickcrawford/defaultvocab/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a summary of the saved vocabulary",
	Long: `Renders the vocabulary size, special tokens and most common entries through
a Mustache template. The built-in template produces Markdown; --template
points at a custom one. When a TikToken encoding is configured each entry
also shows its BPE token cost.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("top", 20, "number of entries to list (0 for all)")
	statsCmd.Flags().String("template", "", "mustache template file (default: built-in Markdown)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	top, _ := cmd.Flags().GetInt("top")
	tplPath, _ := cmd.Flags().GetString("template")

	tpl, err := report.LoadTemplate(tplPath)
	if err != nil {
		return err
	}

	v, err := openVocab(cfg, false)
	if err != nil {
		return err
	}
	tokenCounter, err := newTokenCounter(cfg)
	if err != nil {
		return err
	}

	out, err := report.Render(report.Summarize(v, top, tokenCounter), tpl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
