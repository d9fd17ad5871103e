package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/musicutil/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		label: NewBold(h).Width(8),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// qualityColors goes from green for lossless to grey for the 32kbps tier.
var qualityColors = map[models.Quality]string{
	models.Lossless: "#04B575",
	models.M4A500:   "#7D56F4",
	models.MP3320:   "#3C9EE7",
	models.MP3128:   "#FFA500",
	models.M4A32:    "#626262",
}

// QualityStyle returns the badge style for q; unknown qualities render in the error color.
func QualityStyle(q models.Quality) lipgloss.Style {
	fg, ok := qualityColors[q]
	if !ok {
		return styles.err
	}
	return NewBold(fg).Width(9)
}
