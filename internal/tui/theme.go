package tui

import "github.com/charmbracelet/lipgloss"

// The palette mirrors the web client: UNIAGENT green for user bubbles
// and accents, the pale green sidebar, gray bot bubbles.
var (
	colorGreen     = lipgloss.Color("#98C73C")
	colorGreenSoft = lipgloss.Color("#CFE5A9")
	colorSidebar   = lipgloss.Color("#E4ECD9")
	colorGrayBack  = lipgloss.Color("#E5E7EB")
	colorGrayText  = lipgloss.Color("#1F2937")
	colorFaint     = lipgloss.Color("#6B7280")
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorRed       = lipgloss.Color("#DC2626")
)

type styles struct {
	AppTitle lipgloss.Style

	Sidebar       lipgloss.Style
	SidebarHeader lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
	SidebarCursor lipgloss.Style
	SidebarFaint  lipgloss.Style
	Avatar        lipgloss.Style

	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Loading    lipgloss.Style

	InputBox        lipgloss.Style
	InputBoxFocused lipgloss.Style

	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	AlertText    lipgloss.Style
	HelpBar      lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TicketOpen  lipgloss.Style
	TicketDone  lipgloss.Style
	Flash       lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		AppTitle: lipgloss.NewStyle().Bold(true),

		Sidebar:       lipgloss.NewStyle().Background(colorSidebar).Foreground(colorGrayText),
		SidebarHeader: lipgloss.NewStyle().Bold(true).Foreground(colorFaint),
		SidebarItem:   lipgloss.NewStyle().Foreground(colorGrayText),
		SidebarActive: lipgloss.NewStyle().Bold(true).Foreground(colorGrayText).Background(colorGreenSoft),
		SidebarCursor: lipgloss.NewStyle().Bold(true).Background(colorGreen).Foreground(colorWhite),
		SidebarFaint:  lipgloss.NewStyle().Foreground(colorFaint),
		Avatar:        lipgloss.NewStyle().Bold(true).Background(colorGreen).Foreground(colorGrayText).Padding(0, 1),

		UserBubble: lipgloss.NewStyle().Background(colorGreen).Foreground(colorWhite).Padding(0, 1),
		BotBubble:  lipgloss.NewStyle().Background(colorGrayBack).Foreground(colorGrayText).Padding(0, 1),
		Loading:    lipgloss.NewStyle().Foreground(colorFaint),

		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGreenSoft).
			Padding(0, 1),
		InputBoxFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGreen).
			Padding(0, 1),

		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGreen).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Bold(true),
		AlertText:    lipgloss.NewStyle().Foreground(colorRed),
		HelpBar:      lipgloss.NewStyle().Foreground(colorFaint),

		TabActive:   lipgloss.NewStyle().Bold(true).Underline(true),
		TabInactive: lipgloss.NewStyle().Foreground(colorFaint),
		TicketOpen:  lipgloss.NewStyle().Foreground(colorGreen),
		TicketDone:  lipgloss.NewStyle().Foreground(colorFaint),
		Flash:       lipgloss.NewStyle().Foreground(colorGreen),
	}
}
