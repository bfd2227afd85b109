package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tablesync/internal/engine"
)

var seedValue int64

var seedCmd = &cobra.Command{
	Use:   "seed <connection> <table>",
	Short: "Insert fake rows into a table",
	Long: `Insert --count rows of generated data into an existing table. Values are
picked from each column's type and the meaning of its name (email, phone,
name, address...). An integer primary key continues from the current
maximum. The table may not grow past sync.max_rows.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bar := newProgressBar("seed")
		defer bar.Stop()

		rep, err := newSynchronizer(bar).Seed(cmd.Context(), engine.SeedRequest{
			DSN:   Cfg.ResolveDSN(args[0]),
			Table: args[1],
			Count: viper.GetInt("seed.count"),
			Seed:  seedValue,
		})
		bar.Stop()
		return finish(rep, err)
	},
}

func init() {
	RootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int("count", 0, "number of rows to generate (overrides seed.count)")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed for repeatable data (default is time based)")

	viper.BindPFlag("seed.count", seedCmd.Flags().Lookup("count"))
	viper.SetDefault("seed.count", 100)
}
