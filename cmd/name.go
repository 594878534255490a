package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"memorahanzi/internal/app"
	"memorahanzi/internal/names"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	nameAddKeywords    []string
	nameRemoveKeywords []string
	nameEdit           bool
	nameImage          bool
	nameSave           bool
	nameSay            bool
)

var nameCmd = &cobra.Command{
	Use:   "name [name]",
	Short: "Build a mnemonic for a Chinese name",
	Long: `Resolve the Pinyin of a name, brainstorm sound-alike English keywords and
optionally generate a mnemonic image. Names in Hanzi are converted to Pinyin
first; romanized names are used as-is.`,
	RunE: runName,
}

func init() {
	nameCmd.Flags().StringSliceVarP(&nameAddKeywords, "keyword", "k", nil, "Add a keyword before generating the image")
	nameCmd.Flags().StringSliceVarP(&nameRemoveKeywords, "remove", "r", nil, "Remove a keyword before generating the image")
	nameCmd.Flags().BoolVarP(&nameEdit, "edit", "e", false, "Edit keywords interactively")
	nameCmd.Flags().BoolVarP(&nameImage, "image", "i", false, "Generate a mnemonic image")
	nameCmd.Flags().BoolVarP(&nameSave, "save", "s", false, "Save the image to the output store")
	nameCmd.Flags().BoolVar(&nameSay, "say", false, "Speak the Pinyin and save the audio")
	rootCmd.AddCommand(nameCmd)
}

func runName(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	name := strings.Join(args, " ")
	if name == "" {
		if name, err = promptName(svc.Pipeline().MinLength()); err != nil {
			return err
		}
	}

	snap, err := processName(ctx, svc, name)
	if err != nil {
		return err
	}

	return finishName(ctx, svc, snap)
}

// processName runs the text steps for name and prints the result card.
func processName(ctx context.Context, svc *app.Service, name string) (names.Snapshot, error) {
	pipeline := svc.Pipeline()

	var snap names.Snapshot
	err := runWithSpinner("Brainstorming "+name, func() error {
		var err error
		snap, err = pipeline.Submit(ctx, name)
		return err
	})
	if err != nil {
		printFailure(snap, err)
		return snap, err
	}

	for _, kw := range nameAddKeywords {
		if snap, _, err = pipeline.AddKeyword(kw); err != nil {
			return snap, err
		}
	}
	for _, kw := range nameRemoveKeywords {
		if snap, _, err = pipeline.RemoveKeyword(kw); err != nil {
			return snap, err
		}
	}
	if nameEdit {
		if snap, err = editKeywords(pipeline, snap); err != nil {
			return snap, err
		}
	}

	fmt.Println(renderSnapshot(snap))
	return snap, nil
}

// finishName runs the image and speech steps the flags ask for. They only
// share the record's Pinyin, so they run concurrently.
func finishName(ctx context.Context, svc *app.Service, snap names.Snapshot) error {
	g, gctx := errgroup.WithContext(ctx)

	if nameImage || nameSave {
		g.Go(func() error {
			return generateImage(gctx, svc)
		})
	}
	if nameSay {
		pinyin := snap.Record.Pinyin
		g.Go(func() error {
			audio, err := svc.Speaker().Speak(gctx, pinyin, "")
			if err != nil {
				return fmt.Errorf("speak: %w", err)
			}
			path, err := svc.ExportAudio(gctx, pinyin, audio)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ Saved audio to " + path))
			return nil
		})
	}

	return g.Wait()
}

func generateImage(ctx context.Context, svc *app.Service) error {
	snap, err := svc.Pipeline().GenerateImage(ctx)
	if err != nil {
		printFailure(snap, err)
		return err
	}
	fmt.Println(successStyle.Render("✓ Generated image"))

	if !nameSave {
		return nil
	}
	path, err := svc.ExportImage(ctx)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Saved image to " + path))
	return nil
}

func printFailure(snap names.Snapshot, err error) {
	msg := snap.Record.Error
	if msg == "" {
		msg = err.Error()
	}
	fmt.Println(errorStyle.Render(msg))
}

func promptName(minLength int) (string, error) {
	var name string
	err := huh.NewInput().
		Title("Chinese name").
		Description("Hanzi or Pinyin, e.g. 李明 or Li Ming").
		Value(&name).
		Validate(func(s string) error {
			if len([]rune(strings.TrimSpace(s))) < minLength {
				return names.ErrNameTooShort
			}
			return nil
		}).
		Run()
	return strings.TrimSpace(name), err
}

// editKeywords opens the keyword list one per line and applies the diff.
func editKeywords(pipeline *names.Pipeline, snap names.Snapshot) (names.Snapshot, error) {
	text := strings.Join(snap.Keywords, "\n")
	if err := huh.NewText().
		Title("Keywords").
		Description("One per line").
		Value(&text).
		Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return snap, nil
		}
		return snap, err
	}

	edited := names.NewKeywordSet(strings.Split(text, "\n")...)
	var err error
	for _, kw := range snap.Keywords {
		if !edited.Contains(kw) {
			if snap, _, err = pipeline.RemoveKeyword(kw); err != nil {
				return snap, err
			}
		}
	}
	for _, kw := range edited.Items() {
		if snap, _, err = pipeline.AddKeyword(kw); err != nil {
			return snap, err
		}
	}
	return snap, nil
}
