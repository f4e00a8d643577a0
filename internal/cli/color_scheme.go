package cli

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"
)

// ColorScheme is the help and error color scheme. It follows fang's default,
// with the Terminal.app accent colors swapped in for titles and flags.
func ColorScheme(c lipgloss.LightDarkFunc) fang.ColorScheme {
	cs := fang.DefaultColorScheme(c)

	cs.Title = c(charmtone.Malibu, charmtone.Guppy)
	cs.Program = c(charmtone.Charple, charmtone.Cheeky)
	cs.Flag = c(lipgloss.Color("#0CB37F"), charmtone.Guac)
	cs.Codeblock = c(charmtone.Salt, lipgloss.Color("#1E1E24"))
	cs.ErrorHeader = [2]color.Color{
		charmtone.Butter,
		charmtone.Cherry,
	}

	return cs
}
