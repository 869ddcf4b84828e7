package tui

import (
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	darkmode "github.com/thiagokokada/dark-mode-go"
	"github.com/thiagokokada/jjk-go/internal/config"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func ThemePreferenceFromMode(mode config.Mode) ThemePreference {
	switch config.Mode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case config.ModeDark:
		return ThemeDark
	case config.ModeLight:
		return ThemeLight
	default:
		return ThemeAuto
	}
}

type colorPalette struct {
	ThemeName  string
	Dark       bool
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Selection  lipgloss.Color
	Title      lipgloss.Color
	TitleBg    lipgloss.Color
	ChangeID   lipgloss.Color
	CommitID   lipgloss.Color
	Bookmark   lipgloss.Color
	WorkingCpy lipgloss.Color
	Immutable  lipgloss.Color
	Conflict   lipgloss.Color
	DiffAdd    lipgloss.Color
	DiffAddBg  lipgloss.Color
	DiffDel    lipgloss.Color
	DiffDelBg  lipgloss.Color
	DiffHeader lipgloss.Color
	Error      lipgloss.Color
	Warning    lipgloss.Color
}

var (
	lightPalette = colorPalette{
		ThemeName:  "jjk light",
		Foreground: "#1f2328",
		Muted:      "#6e7781",
		Selection:  "#dbe9ff",
		Title:      "#ffffff",
		TitleBg:    "#5f5faf",
		ChangeID:   "#8250df",
		CommitID:   "#0550ae",
		Bookmark:   "#953800",
		WorkingCpy: "#1a7f37",
		Immutable:  "#0969da",
		Conflict:   "#cf222e",
		DiffAdd:    "#116329",
		DiffAddBg:  "#dff5de",
		DiffDel:    "#82071e",
		DiffDelBg:  "#f9d6d5",
		DiffHeader: "#6639ba",
		Error:      "#cf222e",
		Warning:    "#9a6700",
	}
	darkPalette = colorPalette{
		ThemeName:  "jjk dark",
		Dark:       true,
		Foreground: "#e6edf3",
		Muted:      "#7d8590",
		Selection:  "#2f3b54",
		Title:      "#ffffff",
		TitleBg:    "#5f5faf",
		ChangeID:   "#d2a8ff",
		CommitID:   "#79c0ff",
		Bookmark:   "#ffa657",
		WorkingCpy: "#3fb950",
		Immutable:  "#58a6ff",
		Conflict:   "#ff7b72",
		DiffAdd:    "#a8e6a3",
		DiffAddBg:  "#1f3d2b",
		DiffDel:    "#e6a3a3",
		DiffDelBg:  "#3d1f29",
		DiffHeader: "#bc8cff",
		Error:      "#ff7b72",
		Warning:    "#d29922",
	}
	detectDarkMode = darkmode.IsDarkMode
)

func paletteForPreference(pref ThemePreference) colorPalette {
	switch pref {
	case ThemeDark:
		return darkPalette
	case ThemeLight:
		return lightPalette
	default:
		if detectDarkMode != nil {
			if dark, err := detectDarkMode(); err == nil {
				if dark {
					return darkPalette
				}
			} else {
				slog.Debug("detect dark-mode", slog.Any("error", err))
			}
		}
		return lightPalette
	}
}

// Styles holds all the lipgloss styles of the view.
type Styles struct {
	header    lipgloss.Style
	status    lipgloss.Style
	errorBar  lipgloss.Style
	warning   lipgloss.Style
	selected  lipgloss.Style
	muted     lipgloss.Style
	changeID  lipgloss.Style
	commitID  lipgloss.Style
	bookmark  lipgloss.Style
	working   lipgloss.Style
	immutable lipgloss.Style
	conflict  lipgloss.Style
	added     lipgloss.Style
	removed   lipgloss.Style
	emphAdd   lipgloss.Style
	emphDel   lipgloss.Style
	hunk      lipgloss.Style
	errorText lipgloss.Style
	helpBox   lipgloss.Style
}

func createStyles(p colorPalette) Styles {
	return Styles{
		header: lipgloss.NewStyle().
			Foreground(p.Title).
			Background(p.TitleBg).
			Bold(true),
		status: lipgloss.NewStyle().
			Foreground(p.Muted),
		errorBar: lipgloss.NewStyle().
			Foreground(p.Title).
			Background(p.Error).
			Bold(true),
		warning:   lipgloss.NewStyle().Foreground(p.Warning),
		selected:  lipgloss.NewStyle().Background(p.Selection),
		muted:     lipgloss.NewStyle().Foreground(p.Muted),
		changeID:  lipgloss.NewStyle().Foreground(p.ChangeID).Bold(true),
		commitID:  lipgloss.NewStyle().Foreground(p.CommitID),
		bookmark:  lipgloss.NewStyle().Foreground(p.Bookmark),
		working:   lipgloss.NewStyle().Foreground(p.WorkingCpy).Bold(true),
		immutable: lipgloss.NewStyle().Foreground(p.Immutable),
		conflict:  lipgloss.NewStyle().Foreground(p.Conflict).Bold(true),
		added:     lipgloss.NewStyle().Foreground(p.DiffAdd),
		removed:   lipgloss.NewStyle().Foreground(p.DiffDel),
		emphAdd:   lipgloss.NewStyle().Background(p.DiffAddBg).Bold(true),
		emphDel:   lipgloss.NewStyle().Background(p.DiffDelBg).Bold(true),
		hunk:      lipgloss.NewStyle().Foreground(p.DiffHeader),
		errorText: lipgloss.NewStyle().Foreground(p.Error),
		helpBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Muted).
			Padding(0, 1),
	}
}

func styleForPalette(p colorPalette) *chroma.Style {
	if p.Dark {
		if st := styles.Get("github-dark"); st != nil {
			return st
		}
	} else {
		if st := styles.Get("github"); st != nil {
			return st
		}
	}
	return styles.Fallback
}
