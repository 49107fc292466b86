// Package color holds the terminal color palette and the semantic styles
// used by gcphcp output.
//
// Colors are lipgloss adaptive colors, so they follow the terminal
// background and are dropped automatically when output is not a terminal.
//
// # Semantic mapping
//
// Resource phases and condition statuses map to a small palette:
//   - Success: Ready phase, True conditions, created resources
//   - Warning: Progressing phase, Unknown conditions, pending resources
//   - Info: Pending phase
//   - Error: Failed phase, False conditions
//
// Call Initialize once at startup to pin the background mode.
package color
