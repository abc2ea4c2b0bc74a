package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sealwatch/internal/config"
	"sealwatch/internal/logger"
)

var (
	cfg        *config.Config
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "sealwatch",
	Short: "Watch a directory, encrypt new files, deliver them to one destination",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.sealwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
