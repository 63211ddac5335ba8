package main

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/irfathmostofa/hand-cricket-backend/internal/client"
	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
	"github.com/irfathmostofa/hand-cricket-backend/internal/server"
	"github.com/irfathmostofa/hand-cricket-backend/internal/tui"
)

type cli struct {
	Server string `kong:"default='ws://localhost:8080/ws',help='WebSocket server URL'"`
	Name   string `kong:"default='',help='Display name (defaults to $USER)'"`
	Debug  bool   `kong:"help='Write debug logs to cricket-client.log'"`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("cricket-client"),
		kong.Description("Interactive terminal client for hand cricket"),
		kong.UsageOnError(),
	)

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = os.Getenv("USER")
	}

	// Logs must not write to the terminal while the TUI owns it
	logWriter := io.Writer(io.Discard)
	if c.Debug {
		f, err := os.OpenFile("cricket-client.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			ctx.FatalIfErrorf(err)
		}
		defer func() { _ = f.Close() }()
		logWriter = f
	}
	logger := log.New(logWriter)
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	// Respect the terminal's color capabilities
	lipgloss.SetColorProfile(termenv.ColorProfile())

	wsClient := client.NewClient(strings.TrimSpace(c.Server), logger)
	if err := wsClient.Connect(); err != nil {
		ctx.FatalIfErrorf(err)
	}
	defer func() { _ = wsClient.Disconnect() }()

	model := tui.NewModel(wsClient, name, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// Forward every server message into the Bubble Tea update loop
	for _, event := range []game.EventType{
		game.EventRoomCreated, game.EventRoomJoined, game.EventTossResult,
		game.EventBallStart, game.EventChoiceSubmitted, game.EventBallResult,
		game.EventInningsEnd, game.EventMatchEnd, game.EventPlayerLeft,
		game.EventError,
	} {
		wsClient.AddEventHandler(server.MessageType(event), func(msg *server.Message) {
			program.Send(tui.ServerMsg{Message: msg})
		})
	}

	if _, err := program.Run(); err != nil {
		ctx.FatalIfErrorf(err)
	}
}
