package cmd

import (
	"context"
	"log/slog"
	"os"

	"memorahanzi/internal/app"
	"memorahanzi/pkg/config"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "memorahanzi",
	Short: "Mnemonics for Chinese names",
	Long: `MemoraHanzi turns a Chinese name into Pinyin, sound-alike English keywords
and a mnemonic image, and picks likely Chinese names out of author lists.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to config.yaml")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadService(ctx context.Context) (*app.Service, error) {
	cfg, err := config.LoadFrom(ctx, configPath)
	if err != nil {
		return nil, err
	}
	return app.BuildService(ctx, cfg)
}
