package cmd

import (
	"github.com/spf13/cobra"

	"tablesync/internal/engine"
)

var backupCmd = &cobra.Command{
	Use:   "backup <connection> <table>",
	Short: "Copy a table into <table>_backup in the same schema",
	Long: `Copy every row of a table into <table>_backup, creating the backup
table (and a primary key on id) when it does not exist yet. Running it again
updates existing rows and adds new ones.

<connection> is a connection string or the name of an entry under
"databases" in the config file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bar := newProgressBar("backup")
		defer bar.Stop()

		rep, err := newSynchronizer(bar).Backup(cmd.Context(), engine.BackupRequest{
			DSN:   Cfg.ResolveDSN(args[0]),
			Table: args[1],
		})
		bar.Stop()
		return finish(rep, err)
	},
}

func init() {
	RootCmd.AddCommand(backupCmd)
}
