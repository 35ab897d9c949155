package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultAPIURL = "http://localhost:3536"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

type step int

const (
	stepEnteringEmail step = iota
	stepEnteringPassword
	stepLoggingIn
	stepRooms
)

type model struct {
	api          *apiClient
	step         step
	email        string
	currentInput string
	rooms        []room
	stats        *dashboardStats
	cursor       int
	message      string
	quitting     bool
}

type loginSuccessMsg struct{ token string }
type roomsLoadedMsg struct {
	rooms []room
	stats *dashboardStats
}
type occupancySetMsg struct {
	room   room
	result *occupancyResult
}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(api *apiClient) model {
	return model{api: api, step: stepEnteringEmail}
}

func (m model) Init() tea.Cmd {
	return nil
}

func loginUser(api *apiClient, email, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := api.login(email, password)
		if err != nil {
			return errMsg{fmt.Errorf("login failed: %w", err)}
		}
		return loginSuccessMsg{token: token}
	}
}

func loadRooms(api *apiClient) tea.Cmd {
	return func() tea.Msg {
		rooms, err := api.rooms()
		if err != nil {
			return errMsg{err}
		}
		stats, err := api.stats()
		if err != nil {
			return errMsg{err}
		}
		return roomsLoadedMsg{rooms: rooms, stats: stats}
	}
}

func toggleOccupancy(api *apiClient, r room) tea.Cmd {
	return func() tea.Msg {
		res, err := api.setOccupancy(r.ID, !r.IsOccupied)
		if err != nil {
			return errMsg{err}
		}
		r.IsOccupied = !r.IsOccupied
		return occupancySetMsg{room: r, result: res}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "q":
			if m.step == stepRooms {
				m.quitting = true
				return m, tea.Quit
			}
			m.currentInput += "q"

		case "up", "k":
			if m.step == stepRooms && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.step == stepRooms && m.cursor < len(m.rooms)-1 {
				m.cursor++
			}

		case "r":
			if m.step == stepRooms {
				m.message = "Refreshing..."
				return m, loadRooms(m.api)
			}
			m.currentInput += "r"

		case "backspace":
			if len(m.currentInput) > 0 {
				m.currentInput = m.currentInput[:len(m.currentInput)-1]
			}

		case "enter":
			switch m.step {
			case stepEnteringEmail:
				if m.currentInput != "" {
					m.email = m.currentInput
					m.currentInput = ""
					m.step = stepEnteringPassword
				}

			case stepEnteringPassword:
				if m.currentInput != "" {
					password := m.currentInput
					m.currentInput = ""
					m.step = stepLoggingIn
					m.message = "Logging in..."
					return m, loginUser(m.api, m.email, password)
				}

			case stepRooms:
				if len(m.rooms) > 0 {
					r := m.rooms[m.cursor]
					m.message = fmt.Sprintf("Updating %s...", r.Name)
					return m, toggleOccupancy(m.api, r)
				}
			}

		default:
			if m.step == stepEnteringEmail || m.step == stepEnteringPassword {
				m.currentInput += msg.String()
			}
		}

	case loginSuccessMsg:
		m.api.token = msg.token
		m.step = stepRooms
		m.message = successStyle.Render("✓ Logged in as " + m.email)
		return m, loadRooms(m.api)

	case roomsLoadedMsg:
		m.rooms = msg.rooms
		m.stats = msg.stats
		if m.cursor >= len(m.rooms) {
			m.cursor = 0
		}
		if m.message == "Refreshing..." {
			m.message = ""
		}

	case occupancySetMsg:
		state := "unoccupied"
		if msg.room.IsOccupied {
			state = "occupied"
		}
		m.message = successStyle.Render(fmt.Sprintf("✓ %s is now %s: %d on, %d off",
			msg.room.Name, state, len(msg.result.TurnedOn), len(msg.result.TurnedOff)))
		return m, loadRooms(m.api)

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		if m.step == stepLoggingIn {
			m.step = stepEnteringEmail
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Home Energy Console\n\n"))

	switch m.step {
	case stepEnteringEmail:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("Enter your email:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Enter your password:\n"))
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", len(m.currentInput))))
		s.WriteString("\n\nPress Enter\n")

	case stepLoggingIn:
		s.WriteString(m.message + "\n")

	case stepRooms:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		if m.stats != nil {
			s.WriteString(statStyle.Render(fmt.Sprintf(
				"Rooms %d (%d occupied)  Devices %d (%d on)  Now %.0f W  Used %.2f kWh  Saved %.2f\n\n",
				m.stats.TotalRooms, m.stats.OccupiedRooms, m.stats.TotalDevices, m.stats.DevicesOn,
				m.stats.CurrentPowerUsage, m.stats.TotalEnergyConsumed, m.stats.TotalEnergySaved)))
		}
		if len(m.rooms) == 0 {
			s.WriteString("No rooms yet.\n")
		}
		for i, r := range m.rooms {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			state := "empty"
			if r.IsOccupied {
				state = "occupied"
			}
			s.WriteString(fmt.Sprintf("%s %s (%s)\n", cursor, style.Render(r.Name), state))
		}
		s.WriteString("\nUse ↑/↓, Enter to toggle occupancy, r to refresh, q to quit\n")
	}

	return s.String()
}

func main() {
	url := os.Getenv("ENERGY_API_URL")
	if url == "" {
		url = defaultAPIURL
	}
	p := tea.NewProgram(initialModel(newAPIClient(url)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
