// Package tui implements the Bubble Tea terminal frontend for playing
// hand cricket against a remote opponent.
package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/irfathmostofa/hand-cricket-backend/internal/client"
	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
	"github.com/irfathmostofa/hand-cricket-backend/internal/server"
)

// ServerMsg wraps a server message so it can flow through the Bubble Tea
// update loop.
type ServerMsg struct {
	Message *server.Message
}

// Model represents the Bubble Tea model for the hand cricket client
type Model struct {
	client *client.Client
	logger *log.Logger
	name   string

	logViewport viewport.Model
	input       textinput.Model

	gameLog  []string
	state    *game.GameState // latest snapshot, nil before the first ball
	finished bool
	quitting bool

	width       int
	height      int
	initialized bool
}

// NewModel creates a new TUI model
func NewModel(c *client.Client, name string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "create | join CODE | toss | 1-6 | quit"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	return &Model{
		client:      c,
		logger:      logger.WithPrefix("tui"),
		name:        name,
		logViewport: vp,
		input:       ti,
		gameLog:     []string{},
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = msg.Width - 2
		m.logViewport.Height = msg.Height - 5
		m.initialized = true
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			cmd := m.handleCommand(strings.TrimSpace(m.input.Value()))
			m.input.SetValue("")
			return m, cmd
		}

	case ServerMsg:
		m.handleServerMessage(msg.Message)
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleCommand interprets user input
func (m *Model) handleCommand(input string) tea.Cmd {
	if input == "" {
		return nil
	}

	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		m.quitting = true
		return tea.Quit

	case "create":
		if err := m.client.CreateRoom(m.name); err != nil {
			m.appendLog(ErrorStyle.Render("Failed to create room: " + err.Error()))
		}

	case "join":
		if len(fields) < 2 {
			m.appendLog(ErrorStyle.Render("Usage: join CODE"))
			break
		}
		code := strings.ToUpper(fields[1])
		m.client.SetRoomID(code)
		if err := m.client.JoinRoom(code, m.name); err != nil {
			m.appendLog(ErrorStyle.Render("Failed to join room: " + err.Error()))
		}

	case "toss":
		if err := m.client.StartToss(); err != nil {
			m.appendLog(ErrorStyle.Render("Failed to start toss: " + err.Error()))
		}

	default:
		if n, err := strconv.Atoi(fields[0]); err == nil {
			if err := m.client.ChooseNumber(n); err != nil {
				m.appendLog(ErrorStyle.Render("Failed to submit choice: " + err.Error()))
			} else {
				m.appendLog(InfoStyle.Render(fmt.Sprintf("You played %d", n)))
			}
			break
		}
		m.appendLog(ErrorStyle.Render("Unknown command: " + input))
	}
	return nil
}

// handleServerMessage renders an inbound event into the game log
func (m *Model) handleServerMessage(msg *server.Message) {
	switch game.EventType(msg.Type) {
	case game.EventRoomCreated:
		var p game.RoomCreatedPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.client.SetRoomID(p.RoomID)
		m.appendLog(SuccessStyle.Render("Room created: " + p.RoomID))
		m.appendLog(InfoStyle.Render("Share the code with your opponent, then type 'toss' once they join"))

	case game.EventRoomJoined:
		var p game.RoomJoinedPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		names := make([]string, len(p.Players))
		for i, pl := range p.Players {
			names[i] = pl.Name
		}
		m.appendLog(SuccessStyle.Render("Both players in: " + strings.Join(names, " vs ")))

	case game.EventTossResult:
		var p game.TossResultPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.appendLog(ScoreStyle.Render(p.Message))

	case game.EventBallStart:
		var p game.BallStartPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.state = &p.GameState
		m.appendLog(fmt.Sprintf("Ball %d.%d — pick a number 1-6 (%ds)",
			p.GameState.Overs, p.GameState.BallsInOver+1, p.TimeoutSeconds))

	case game.EventChoiceSubmitted:
		var p game.ChoiceSubmittedPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.appendLog(InfoStyle.Render(fmt.Sprintf("Choices in: %d/2", p.ChoiceCount)))

	case game.EventBallResult:
		var p game.BallResultPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.state = &p.GameState
		line := fmt.Sprintf("bat %d vs bowl %d — %s", p.Bat, p.Bowl, p.Message)
		if p.Out {
			m.appendLog(WicketStyle.Render(line))
		} else {
			m.appendLog(RunsStyle.Render(line))
		}

	case game.EventInningsEnd:
		var p game.InningsEndPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.state = &p.GameState
		m.appendLog(ScoreStyle.Render(fmt.Sprintf(
			"Innings over: %d on the board. Target to win: %d", p.FirstInningsScore, p.Target)))

	case game.EventMatchEnd:
		var p game.MatchEndPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.state = &p.GameState
		m.finished = true
		m.appendLog(SuccessStyle.Render(p.Message))
		m.appendLog(InfoStyle.Render(fmt.Sprintf("Scores: %d / %d (target %d)",
			p.FirstInningsScore, p.SecondInningsScore, p.Target)))

	case game.EventPlayerLeft:
		var p game.PlayerLeftPayload
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.finished = true
		m.appendLog(ErrorStyle.Render(p.Message))

	case game.EventError:
		var p server.ErrorData
		if json.Unmarshal(msg.Data, &p) != nil {
			return
		}
		m.appendLog(ErrorStyle.Render("Error: " + p.Message))
	}
}

func (m *Model) appendLog(line string) {
	m.gameLog = append(m.gameLog, line)
	m.refreshLog()
}

func (m *Model) refreshLog() {
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// header renders the score line
func (m *Model) header() string {
	title := "Hand Cricket"
	if room := m.client.RoomID(); room != "" {
		title += "  [" + room + "]"
	}
	if m.state != nil {
		title += fmt.Sprintf("  %d/%d  %d.%d ov",
			m.state.Score, m.state.Wickets, m.state.Overs, m.state.BallsInOver)
		if m.state.Target > 0 {
			title += fmt.Sprintf("  (target %d)", m.state.Target)
		}
	}
	return HeaderStyle.Render(" " + title + " ")
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return "Thanks for playing!\n"
	}
	if !m.initialized {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		GameLogStyle.Render(m.logViewport.View()),
		"",
		m.input.View(),
	)
}
