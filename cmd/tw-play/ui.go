package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AhmetY21/TextWorld/pkg/game"
	"github.com/AhmetY21/TextWorld/pkg/session"
)

const placeholderText = "What do you do?"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	endingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))
)

// PlayUI is the BubbleTea model for human play.
// https://github.com/charmbracelet/bubbletea
type PlayUI struct {
	env  *session.Environment
	game *game.Game

	viewport   viewport.Model
	textarea   textarea.Model
	transcript []string
	ready      bool
	width      int
	height     int
	waiting    bool
	finished   bool
	err        error
}

type stepMsg struct {
	state *session.GameState
	score int
	done  bool
	err   error
}

// NewPlayUI builds the console UI over an already-reset environment.
func NewPlayUI(env *session.Environment, g *game.Game) *PlayUI {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.Focus()
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	ui := &PlayUI{
		env:      env,
		game:     g,
		textarea: ta,
	}
	if st := env.State(); st != nil {
		ui.transcript = append(ui.transcript, session.Render(st, session.RenderText))
	}
	return ui
}

func (ui *PlayUI) Init() tea.Cmd {
	return textarea.Blink
}

func (ui *PlayUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var taCmd, vpCmd tea.Cmd
	ui.textarea, taCmd = ui.textarea.Update(msg)
	ui.viewport, vpCmd = ui.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		headerHeight := 2
		footerHeight := 4
		if !ui.ready {
			ui.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			ui.ready = true
		} else {
			ui.viewport.Width = msg.Width
			ui.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		ui.textarea.SetWidth(msg.Width - 4)
		ui.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return ui, tea.Quit
		case tea.KeyCtrlY:
			// Copy the whole transcript for sharing.
			_ = clipboard.WriteAll(strings.Join(ui.transcript, ""))
		case tea.KeyEnter:
			if ui.waiting || ui.finished {
				return ui, nil
			}
			command := strings.TrimSpace(ui.textarea.Value())
			ui.textarea.Reset()
			ui.waiting = true
			ui.transcript = append(ui.transcript, commandStyle.Render("> "+command)+"\n")
			ui.refreshViewport()
			return ui, ui.step(command)
		}

	case stepMsg:
		ui.waiting = false
		if msg.err != nil {
			if errors.Is(msg.err, session.ErrNotRunning) {
				ui.finished = true
				ui.transcript = append(ui.transcript,
					endingStyle.Render("The interpreter has stopped; the session can no longer progress.")+"\n")
			} else {
				ui.err = msg.err
				return ui, tea.Quit
			}
		} else {
			ui.transcript = append(ui.transcript, strings.TrimRight(msg.state.Feedback(), " \t\n")+"\n")
			if msg.done {
				ui.finished = true
				ui.transcript = append(ui.transcript, ui.ending(msg.state, msg.score))
			}
		}
		ui.refreshViewport()
	}

	return ui, tea.Batch(taCmd, vpCmd)
}

// step issues the command off the UI loop; the session blocks until the
// interpreter responds.
func (ui *PlayUI) step(command string) tea.Cmd {
	return func() tea.Msg {
		st, score, done, err := ui.env.Step(context.Background(), command)
		return stepMsg{state: st, score: score, done: done, err: err}
	}
}

func (ui *PlayUI) ending(st *session.GameState, score int) string {
	var verdict string
	switch {
	case st.HasWon():
		verdict = "You won!"
	case st.HasLost():
		verdict = "You lost."
	default:
		verdict = "The game ended."
	}
	return endingStyle.Render(fmt.Sprintf("%s Final score: %d / %d in %d moves.",
		verdict, score, st.MaxScore(), st.Moves())) + "\n"
}

func (ui *PlayUI) refreshViewport() {
	if !ui.ready {
		return
	}
	var wrapped []string
	for _, block := range ui.transcript {
		wrapped = append(wrapped, wordwrap.String(block, ui.viewport.Width-2))
	}
	ui.viewport.SetContent(strings.Join(wrapped, "\n"))
	ui.viewport.GotoBottom()
}

func (ui *PlayUI) View() string {
	if ui.err != nil {
		return "Error: " + ui.err.Error() + "\n"
	}
	if !ui.ready {
		return "Loading..."
	}

	title := titleStyle.Render(cases.Title(language.English).String(ui.game.Name))

	status := fmt.Sprintf("moves: %d", ui.env.State().Moves())
	if score, err := ui.env.State().Score(); err == nil {
		status = fmt.Sprintf("score: %d/%d  %s", score, ui.env.State().MaxScore(), status)
	}
	if ui.waiting {
		status += "  thinking..."
	}
	help := "enter: play  ctrl+y: copy transcript  esc: quit"

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		title,
		ui.viewport.View(),
		statusStyle.Render(status),
		ui.textarea.View(),
		statusStyle.Render(help))
}
