package cmd

import (
	"fmt"
	"strings"

	"memorahanzi/internal/authors"
	"memorahanzi/internal/names"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(10)
	chipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

func renderSnapshot(snap names.Snapshot) string {
	rec := snap.Record
	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Name"), rec.OriginalName),
	}
	if rec.Pinyin != "" {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Pinyin"), rec.Pinyin))
	}
	if len(rec.Syllables) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Syllables"), strings.Join(rec.Syllables, " · ")))
	}
	if len(snap.Keywords) > 0 {
		chips := make([]string, 0, len(snap.Keywords))
		for _, kw := range snap.Keywords {
			chips = append(chips, chipStyle.Render(kw))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Keywords"), strings.Join(chips, " ")))
	}
	if rec.ImageURL != "" {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Image"), infoStyle.Render("ready")))
	}
	if rec.Error != "" {
		rows = append(rows, errorStyle.Render(rec.Error))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderAuthors(list []authors.Author) string {
	var b strings.Builder
	for i, a := range list {
		marker := "  "
		style := lipgloss.NewStyle()
		if a.IsPotentiallyChinese {
			marker = "中"
			style = successStyle
		}
		fmt.Fprintf(&b, "%3d %s %s\n", i+1, marker, style.Render(a.Name))
	}
	return b.String()
}
