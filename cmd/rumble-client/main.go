package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cppla/rumble/client"
	"github.com/cppla/rumble/config"
	"github.com/cppla/rumble/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var configPath, envPrefix string

	cmd := &cobra.Command{
		Use:   "rumble-client",
		Short: "Connect to a Rumble VPN tunnel server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, envPrefix)
		},
	}
	cmd.Flags().StringVar(&configPath, "config_path", "config.yaml", "path to the client config file")
	cmd.Flags().StringVar(&envPrefix, "env_prefix", "RUMBLE", "environment variable prefix for config overrides")

	if err := cmd.Execute(); err != nil {
		fmt.Printf("A critical error occurred: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPrefix string) error {
	cfg, err := config.LoadClientConfig(configPath, envPrefix)
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Path)
	defer logger.Sync()

	c, err := client.New(cfg, logger)
	if err != nil {
		logger.Error("A critical error occurred", zap.Error(err))
		os.Exit(1)
	}

	if err := c.Start(); err != nil {
		logger.Error("A critical error occurred", zap.Error(err))
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	return c.Stop()
}
