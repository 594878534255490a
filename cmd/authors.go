package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"memorahanzi/internal/authors"

	"github.com/spf13/cobra"
)

var (
	authorsFile    string
	authorsProcess int
)

var authorsCmd = &cobra.Command{
	Use:   "authors [names...]",
	Short: "Find potentially Chinese names in an author list",
	Long: `Classify a list of author names separated by commas, semicolons or newlines.
The list is read from the arguments, --file, or stdin. Use --process to run
one of the listed names through the mnemonic pipeline.`,
	RunE: runAuthors,
}

func init() {
	authorsCmd.Flags().StringVarP(&authorsFile, "file", "f", "", "Read the author list from a file (- for stdin)")
	authorsCmd.Flags().IntVarP(&authorsProcess, "process", "p", 0, "Process the author at this 1-based position")
	rootCmd.AddCommand(authorsCmd)
}

func runAuthors(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	raw, err := readAuthorList(cmd, args)
	if err != nil {
		return err
	}

	svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var list []authors.Author
	err = runWithSpinner("Identifying Chinese names", func() error {
		var err error
		list, err = svc.ClassifyAuthors(ctx, raw)
		return err
	})
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return err
	}

	fmt.Print(renderAuthors(list))
	fmt.Println(warnStyle.Render(svc.Classifier().Disclaimer()))

	if authorsProcess == 0 {
		return nil
	}
	if authorsProcess < 1 || authorsProcess > len(list) {
		return fmt.Errorf("--process must be between 1 and %d", len(list))
	}

	snap, err := processName(ctx, svc, list[authorsProcess-1].Name)
	if err != nil {
		return err
	}
	return finishName(ctx, svc, snap)
}

func readAuthorList(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case authorsFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	case authorsFile != "":
		data, err := os.ReadFile(authorsFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", authorsFile, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	return string(data), err
}
