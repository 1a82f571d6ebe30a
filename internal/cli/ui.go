package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dkeye/Voice/internal/client"
	"github.com/dkeye/Voice/internal/domain"
)

var (
	Primary   = lipgloss.Color("#22d3ee")
	Secondary = lipgloss.Color("#7C3AED")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
	Muted     = lipgloss.Color("#6B7280")
)

var (
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(Primary).
			Padding(0, 1).
			Bold(true)

	SpeakingStyle = lipgloss.NewStyle().Foreground(Success).Bold(true)
	RoleStyle     = lipgloss.NewStyle().Foreground(Secondary).Italic(true)
)

var (
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).Align(lipgloss.Center)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	TableRowStyle    = tableCellStyle.Foreground(lipgloss.Color("255"))
	TableRowAltStyle = tableCellStyle.Foreground(lipgloss.Color("245"))
)

const (
	IconError    = "❌"
	IconWarning  = "⚠️"
	IconRoom     = "🚪"
	IconPeer     = "👤"
	IconSpeaking = "🔊"
	IconMic      = "🎙"
)

func PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render(IconError), ErrorStyle.Render(msg))
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle.Render(IconWarning), WarningStyle.Render(msg))
}

// PhaseView renders the session phase as a status badge.
func PhaseView(room domain.RoomID, p client.Phase) string {
	return fmt.Sprintf("%s %s %s", IconRoom, BoldStyle.Render(string(room)), StatusStyle.Render(p.String()))
}

// RosterView renders one line per participant, marking self and speakers.
func RosterView(self domain.UserID, entries []client.RosterEntry) string {
	if len(entries) == 0 {
		return MutedStyle.Render("  nobody here yet")
	}
	var b strings.Builder
	for i, e := range entries {
		icon := IconPeer
		if e.Role == domain.RoleSpeaker {
			icon = IconMic
		}
		name := string(e.UserID)
		if e.UserID == self {
			name += " (you)"
		}
		line := fmt.Sprintf("  %s %s %s", icon, BoldStyle.Render(name), RoleStyle.Render(string(e.Role)))
		if e.Speaking {
			line += " " + SpeakingStyle.Render(IconSpeaking+" speaking")
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

type roomRow struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
}

// RoomsTable renders the active rooms.
func RoomsTable(rooms []roomRow) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{r.ID, strconv.Itoa(r.Participants)})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Room", "Participants").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
	return tbl.Render()
}
