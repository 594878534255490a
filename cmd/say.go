package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	sayLang string
	sayOut  string
)

var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Pronounce text and save the audio",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSay,
}

func init() {
	sayCmd.Flags().StringVarP(&sayLang, "lang", "l", "", "Language tag, defaults to speech.default_lang")
	sayCmd.Flags().StringVarP(&sayOut, "out", "o", "", "Write audio to this path instead of the output store")
	rootCmd.AddCommand(sayCmd)
}

func runSay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.Join(args, " ")

	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var audio []byte
	err = runWithSpinner("Synthesizing speech", func() error {
		var err error
		audio, err = svc.Speaker().Speak(ctx, text, sayLang)
		return err
	})
	if err != nil {
		return err
	}

	path := sayOut
	if path != "" {
		if err := os.WriteFile(path, audio, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	} else if path, err = svc.ExportAudio(ctx, text, audio); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Saved audio to " + path))
	return nil
}
