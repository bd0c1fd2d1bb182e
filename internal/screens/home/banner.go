package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/nutrify/internal/ui/theme"
)

const bannerArt = ` ███╗   ██╗██╗   ██╗████████╗██████╗ ██╗███████╗██╗   ██╗
 ████╗  ██║██║   ██║╚══██╔══╝██╔══██╗██║██╔════╝╚██╗ ██╔╝
 ██╔██╗ ██║██║   ██║   ██║   ██████╔╝██║█████╗   ╚████╔╝
 ██║╚██╗██║██║   ██║   ██║   ██╔══██╗██║██╔══╝    ╚██╔╝
 ██║ ╚████║╚██████╔╝   ██║   ██║  ██║██║██║        ██║
 ╚═╝  ╚═══╝ ╚═════╝    ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝        ╚═╝`

const bannerCompact = "N U T R I F Y"

// renderBanner falls back to spaced letters below 60 columns.
func renderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := bannerArt
	if width < 60 {
		art = bannerCompact
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(style.Render(art))
}
