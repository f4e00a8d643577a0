package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrorHandler prints err below a styled header. Joined errors are printed one
// per line. Output that is not a terminal is left unstyled.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) { //nolint:gosec // Fd fits in int.
		mustN(fmt.Fprintf(w, "Error: %s\n", err.Error()))

		return
	}

	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))

	details := lipgloss.NewStyle().MarginLeft(2)
	for line := range strings.SplitSeq(err.Error(), "\n") {
		mustN(fmt.Fprintln(w, details.Render(line)))
	}

	mustN(fmt.Fprintln(w))
	if isUsageError(err) {
		mustN(fmt.Fprintln(w, lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
		)))
		mustN(fmt.Fprintln(w))
	}
}

// XXX: this is a hack to detect usage errors.
// See: https://github.com/spf13/cobra/pull/2266
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"accepts ",
		"requires at least",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
