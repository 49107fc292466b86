package color

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		isDarkMode bool
		expected   bool
	}{
		{"set dark mode", true, true},
		{"set light mode", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Initialize(tt.isDarkMode)
			if lipgloss.HasDarkBackground() != tt.expected {
				t.Errorf("lipgloss.HasDarkBackground() got %v, want %v after Initialize(%v)", lipgloss.HasDarkBackground(), tt.expected, tt.isDarkMode)
			}
		})
	}
}

func TestPhase(t *testing.T) {
	tests := []struct {
		phase string
		want  lipgloss.TerminalColor
	}{
		{"Ready", Success},
		{"Progressing", Warning},
		{"Pending", Info},
		{"Failed", Error},
	}
	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			assert.Equal(t, tt.want, Phase(tt.phase).GetForeground())
			assert.Equal(t, tt.want, PhaseColor(tt.phase))
		})
	}
	assert.Equal(t, Muted, PhaseColor("Deleting"))
}

func TestConditionStatus(t *testing.T) {
	assert.Equal(t, Success, ConditionStatus("True").GetForeground())
	assert.Equal(t, Error, ConditionStatus("False").GetForeground())
	assert.Equal(t, Warning, ConditionStatus("Unknown").GetForeground())
}

func TestHostedCondition(t *testing.T) {
	assert.Equal(t, Error, HostedCondition("Degraded", "True").GetForeground())
	assert.Equal(t, Success, HostedCondition("Degraded", "False").GetForeground())
	assert.Equal(t, Error, HostedCondition("Available", "False").GetForeground())
	assert.Equal(t, Success, HostedCondition("Available", "True").GetForeground())
	assert.Equal(t, Success, HostedCondition("Progressing", "False").GetForeground())
}

func TestResourceStatus(t *testing.T) {
	assert.Equal(t, Success, ResourceStatus("Created").GetForeground())
	assert.Equal(t, Warning, ResourceStatus("Pending").GetForeground())
	assert.Equal(t, Error, ResourceStatus("Failed").GetForeground())
}
