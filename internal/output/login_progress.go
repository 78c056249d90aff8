package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoginProgressUI shows the state of a browser login while waiting for the redirect
type LoginProgressUI interface {
	// Start announces the authorization URL and begins waiting
	Start(authURL string)
	// Finish ends the wait with the outcome of the session
	Finish(err error)
}

// NewLoginProgressUI creates the appropriate progress UI based on TTY availability.
// onCancel runs when the user presses ctrl+c in the terminal UI.
func NewLoginProgressUI(out io.Writer, onCancel func()) LoginProgressUI {
	if isTerminal(out) {
		return &ttyLoginProgress{out: out, onCancel: onCancel}
	}
	return &simpleLoginProgress{out: out}
}

// simpleLoginProgress prints progress line by line (non-TTY)
type simpleLoginProgress struct {
	out io.Writer
}

func (p *simpleLoginProgress) Start(authURL string) {
	fmt.Fprintf(p.out, "Opening browser for GitHub login.\nIf it does not open, visit:\n  %s\n", authURL)
	fmt.Fprintln(p.out, "Waiting for authorization...")
}

func (p *simpleLoginProgress) Finish(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "✗ Login failed: %v\n", err)
		return
	}
	fmt.Fprintln(p.out, "✓ Logged in")
}

// ttyLoginProgress uses bubbletea for an animated spinner (TTY)
type ttyLoginProgress struct {
	out      io.Writer
	onCancel func()
	program  *tea.Program
}

func (p *ttyLoginProgress) Start(authURL string) {
	m := newLoginModel(authURL)
	m.onCancel = p.onCancel
	p.program = tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(p.out))
	go func() {
		_, _ = p.program.Run()
	}()
}

func (p *ttyLoginProgress) Finish(err error) {
	if p.program == nil {
		return
	}
	p.program.Send(loginDoneMsg{err: err})
	p.program.Wait()
}

type loginDoneMsg struct {
	err error
}

type loginModel struct {
	authURL  string
	onCancel func()
	spinner  spinner.Model
	done     bool
	err      error
	urlStyle lipgloss.Style
	okStyle  lipgloss.Style
	errStyle lipgloss.Style
}

func newLoginModel(authURL string) *loginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &loginModel{
		authURL:  authURL,
		spinner:  s,
		urlStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		okStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		errStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (m *loginModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.onCancel != nil {
				m.onCancel()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m *loginModel) View() string {
	if m.done {
		if m.err != nil {
			return m.errStyle.Render("✗ Login failed: "+m.err.Error()) + "\n"
		}
		return m.okStyle.Render("✓ Logged in") + "\n"
	}
	return fmt.Sprintf("\n  %s Waiting for GitHub authorization\n  %s\n",
		m.spinner.View(), m.urlStyle.Render(m.authURL))
}
