package cmd

import (
	"github.com/spf13/cobra"

	"tablesync/internal/engine"
)

var processColumns []string

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <connection> <table>",
	Short: "Tokenize configured columns of a table in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args, false)
	},
}

var detokenizeCmd = &cobra.Command{
	Use:   "detokenize <connection> <table>",
	Short: "Restore tokenized columns of a table in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args, true)
	},
}

// runProcess rewrites --columns of every row. Only columns listed under
// encryption.fields are changed; rows are matched on id.
func runProcess(cmd *cobra.Command, args []string, isTokenized bool) error {
	bar := newProgressBar(cmd.Name())
	defer bar.Stop()

	rep, err := newSynchronizer(bar).ProcessTable(cmd.Context(), engine.ProcessRequest{
		DSN:     Cfg.ResolveDSN(args[0]),
		Table:   args[1],
		Columns: processColumns,
	}, isTokenized)
	bar.Stop()
	return finish(rep, err)
}

func init() {
	RootCmd.AddCommand(tokenizeCmd, detokenizeCmd)

	for _, c := range []*cobra.Command{tokenizeCmd, detokenizeCmd} {
		c.Flags().StringSliceVarP(&processColumns, "columns", "c", []string{}, "columns to process (comma-separated)")
		c.MarkFlagRequired("columns")
	}
}
