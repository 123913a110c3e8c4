package cmd

import (
	"context"
	"fmt"
	"os"

	"discord-moderator/bot"
	"discord-moderator/config"
	"discord-moderator/handlers"
	"discord-moderator/utils"
	"discord-moderator/utils/database/sanctions"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "discord-moderator",
	Short: "Discord moderation bot with temporary mutes",
	Long: `Runs the moderation bot. Mutes are applied through a restricted role and
lifted automatically when their time is up, surviving restarts.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFile,
		"config", "c",
		"",
		`path to a config file (by default config.yaml is searched in . and ./data) | example: --config=data/config.yaml`,
	)
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	db, err := sanctions.Init(cfg.DatabasePath)
	if err != nil {
		logger.Error("Error initializing database", zap.String("path", cfg.DatabasePath), zap.Error(err))
		return err
	}

	b, err := bot.New(cfg, db, logger)
	if err != nil {
		db.Close()
		logger.Error("Error creating bot", zap.Error(err))
		return err
	}
	defer b.Close()

	handlers.Register(b)

	return b.Run(ctx)
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
