package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"tablesync/internal/config"
	"tablesync/internal/logger"
)

var (
	cfgFile string
	readErr error

	// Cfg and Log are set by RootCmd.PersistentPreRunE before any command runs.
	Cfg *config.Config
	Log *zap.Logger
)

var RootCmd = &cobra.Command{
	Use:   "tablesync",
	Short: "Copy, back up and tokenize database tables",
	Long: `
  _____  _    ____  _     _____ ______   ___   _  ____
 |_   _|/ \  | __ )| |   | ____/ ___\ \ / / \ | |/ ___|
   | | / _ \ |  _ \| |   |  _| \___ \\ V /|  \| | |
   | |/ ___ \| |_) | |___| |___ ___) || | | |\  | |___
   |_/_/   \_\____/|_____|_____|____/ |_| |_| \_|\____|

TABLESYNC - table transfer, backup and field tokenization
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if readErr != nil {
			return readErr
		}
		c, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		l, err := logger.New(c.Log.Level, c.Log.Format)
		if err != nil {
			return err
		}
		if f := viper.ConfigFileUsed(); f != "" {
			l.Debug("using config file", zap.String("path", f))
		}
		Cfg, Log = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if Log != nil {
			_ = Log.Sync()
		}
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./tablesync.yaml)")
	flags.String("schema", "", "schema to operate in (default is the database default)")
	flags.String("driver", "", "force a driver instead of detecting it from the connection string")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console or json)")

	viper.BindPFlag("sync.schema", flags.Lookup("schema"))
	viper.BindPFlag("sync.driver", flags.Lookup("driver"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

// initConfig reads in the config file if there is one. Environment
// variables are already bound by config.SetDefaults.
func initConfig() {
	readErr = config.ReadFile(viper.GetViper(), cfgFile)
}
