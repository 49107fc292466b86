package color

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Success = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	Error   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	Warning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	Info    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
	Accent  = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	Muted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Styles
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	KeyStyle     = lipgloss.NewStyle().Foreground(Accent)
	DimStyle     = lipgloss.NewStyle().Foreground(Muted)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	PlainStyle   = lipgloss.NewStyle()
)

// Initialize sets whether the terminal has a dark background.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Phase returns the style for a cluster or nodepool phase.
func Phase(phase string) lipgloss.Style {
	switch phase {
	case "Ready":
		return SuccessStyle
	case "Progressing":
		return WarningStyle
	case "Pending":
		return InfoStyle
	case "Failed":
		return ErrorStyle
	default:
		return PlainStyle
	}
}

// PhaseColor returns the border color matching Phase.
func PhaseColor(phase string) lipgloss.TerminalColor {
	switch phase {
	case "Ready":
		return Success
	case "Progressing":
		return Warning
	case "Pending":
		return Info
	case "Failed":
		return Error
	default:
		return Muted
	}
}

// ConditionStatus returns the style for a condition status value.
func ConditionStatus(status string) lipgloss.Style {
	switch status {
	case "True":
		return SuccessStyle
	case "False":
		return ErrorStyle
	case "Unknown":
		return WarningStyle
	default:
		return PlainStyle
	}
}

// ResourceStatus returns the style for the status of a resource managed by
// a controller.
func ResourceStatus(status string) lipgloss.Style {
	switch status {
	case "Created", "Ready", "Available":
		return SuccessStyle
	case "Failed":
		return ErrorStyle
	case "Pending":
		return WarningStyle
	default:
		return PlainStyle
	}
}

// HostedCondition styles a hosted cluster condition, where a True Degraded
// or a False Available is bad.
func HostedCondition(conditionType, status string) lipgloss.Style {
	switch status {
	case "True":
		if conditionType == "Degraded" {
			return ErrorStyle
		}
		return SuccessStyle
	case "False":
		if conditionType == "Available" || conditionType == "ClusterVersionSucceeding" {
			return ErrorStyle
		}
		return SuccessStyle
	case "Unknown":
		return WarningStyle
	default:
		return PlainStyle
	}
}
