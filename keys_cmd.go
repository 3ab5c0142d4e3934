package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var keysCmd = &cobra.Command{
	Use:     "keys",
	Short:   "Show which key plays which note",
	Long:    paragraph(fmt.Sprintf("\n%s the keyboard layout: every key, its note and the note's frequency.", keyword("Print"))),
	Example: paragraph("keypiano keys"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := renderKeyTable(notes.Default(), term.IsTerminal(int(os.Stdout.Fd())))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err //nolint:wrapcheck
	},
}

// keyTableMarkdown returns the layout as a markdown table.
func keyTableMarkdown(t notes.Table) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	b.WriteString("| Key | Note | Frequency |\n")
	b.WriteString("|:---:|:----:|----------:|\n")
	for _, n := range t.Notes() {
		fmt.Fprintf(&b, "| %s | %s | %.2f Hz |\n", strings.ToUpper(string(n.Key)), n.Name, n.Frequency)
	}
	b.WriteString("\nPress **esc** or **q** to quit the piano.\n")
	return b.String()
}

// keyTableText is the plain layout used in the man page.
func keyTableText() string {
	var b strings.Builder
	for _, n := range notes.Default().Notes() {
		fmt.Fprintf(&b, "%s  %s  %.2f Hz\n", strings.ToUpper(string(n.Key)), n.Name, n.Frequency)
	}
	return b.String()
}

func renderKeyTable(t notes.Table, isTerminal bool) (string, error) {
	style := glamour.WithAutoStyle()
	if !isTerminal {
		style = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		style,
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(keyTableMarkdown(t))
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
