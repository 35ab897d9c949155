package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestLoginSteps(t *testing.T) {
	var m tea.Model = initialModel(newAPIClient("http://localhost:0"))

	m = typeText(m, "me@example.com")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := m.(model)
	assert.Equal(t, stepEnteringPassword, got.step)
	assert.Equal(t, "me@example.com", got.email)
	assert.Empty(t, got.currentInput)

	m = typeText(m, "pw")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, stepLoggingIn, m.(model).step)

	m, _ = m.Update(errMsg{errors.New("login failed: bad credentials")})
	assert.Equal(t, stepEnteringEmail, m.(model).step)
	assert.Contains(t, m.View(), "bad credentials")
}

func TestRoomsView(t *testing.T) {
	m := initialModel(newAPIClient("http://localhost:0"))
	m.step = stepRooms

	updated, _ := m.Update(roomsLoadedMsg{
		rooms: []room{{ID: "a", Name: "Attic"}, {ID: "b", Name: "Bath", IsOccupied: true}},
		stats: &dashboardStats{TotalRooms: 2, OccupiedRooms: 1},
	})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	got := updated.(model)
	assert.Equal(t, 1, got.cursor)

	view := got.View()
	assert.Contains(t, view, "Attic")
	assert.Contains(t, view, "occupied")

	_, cmd := got.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
}
