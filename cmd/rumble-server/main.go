package main

import (
	"fmt"
	"os"

	"github.com/cppla/rumble/config"
	"github.com/cppla/rumble/server"
	"github.com/cppla/rumble/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var configPath, envPrefix string

	cmd := &cobra.Command{
		Use:   "rumble-server",
		Short: "Run a Rumble VPN tunnel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, envPrefix)
		},
	}
	cmd.Flags().StringVar(&configPath, "config_path", "config.yaml", "path to the server config file")
	cmd.Flags().StringVar(&envPrefix, "env_prefix", "RUMBLE", "environment variable prefix for config overrides")

	if err := cmd.Execute(); err != nil {
		fmt.Printf("A critical error occurred: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPrefix string) error {
	cfg, err := config.LoadServerConfig(configPath, envPrefix)
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Path)
	defer logger.Sync()

	supervisor, err := server.NewSupervisor(cfg, logger)
	if err != nil {
		logger.Error("A critical error occurred", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("rumble server starting", zap.Int("tunnels", len(cfg.Tunnels)))
	return supervisor.Run()
}
