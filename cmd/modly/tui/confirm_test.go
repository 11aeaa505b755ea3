package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m ConfirmModel, keys ...string) ConfirmModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(ConfirmModel)
	}
	return m
}

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want bool
	}{
		{"enter defaults to cancel", []string{"enter"}, false},
		{"tab then enter confirms", []string{"tab", "enter"}, true},
		{"tab twice returns to cancel", []string{"tab", "tab", "enter"}, false},
		{"y confirms", []string{"y"}, true},
		{"n cancels", []string{"tab", "n"}, false},
		{"esc cancels", []string{"tab", "esc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewConfirmModel("Delete?", nil, "Delete"), tt.keys...)
			if !m.done {
				t.Fatal("expected dialog to be done")
			}
			if m.Confirmed() != tt.want {
				t.Errorf("Confirmed() = %v, want %v", m.Confirmed(), tt.want)
			}
		})
	}
}

func TestConfirmModelView(t *testing.T) {
	lines := make([]string, maxDialogLines+3)
	for i := range lines {
		lines[i] = "old_mod.package"
	}
	m := NewConfirmModel("Delete 13 older duplicates?", lines, "Delete")
	view := m.View()

	for _, want := range []string{"Delete 13 older duplicates?", "Cancel", "Delete", "... and 3 more"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}
