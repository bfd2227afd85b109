package cmd

import (
	"github.com/spf13/cobra"

	"tablesync/internal/engine"
)

var (
	targetTable     string
	transferColumns []string
)

var transferCmd = &cobra.Command{
	Use:   "transfer <source> <target> <table>",
	Short: "Copy a table into a structurally identical table, tokenizing columns",
	Long: `Copy every row of <table> from <source> into the table of the same name
(or --target-table) on <target>. Both tables must have the same columns,
types and nullability. Values of --columns are tokenized on the way unless
they already are.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst := targetTable
		if dst == "" {
			dst = args[2]
		}

		bar := newProgressBar("transfer")
		defer bar.Stop()

		rep, err := newSynchronizer(bar).Transfer(cmd.Context(), engine.TransferRequest{
			SourceDSN:   Cfg.ResolveDSN(args[0]),
			TargetDSN:   Cfg.ResolveDSN(args[1]),
			SourceTable: args[2],
			TargetTable: dst,
			Columns:     transferColumns,
		})
		bar.Stop()
		return finish(rep, err)
	},
}

func init() {
	RootCmd.AddCommand(transferCmd)

	transferCmd.Flags().StringVar(&targetTable, "target-table", "", "target table name (default is the source table name)")
	transferCmd.Flags().StringSliceVarP(&transferColumns, "columns", "c", []string{}, "columns to tokenize (comma-separated)")
}
