package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/shouni/gemini-image-editor/pkg/presets"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "プロンプトのプリセット一覧を表示します。",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range presets.All() {
			fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Prompt)
		}
		return tw.Flush()
	},
}
