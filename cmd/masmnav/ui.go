package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"masmnav/internal/nav"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	missStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type model struct {
	ctx     context.Context
	svc     *nav.Service
	input   textinput.Model
	results []string
}

type resultMsg string

func initialModel(ctx context.Context, svc *nav.Service) model {
	ti := textinput.New()
	ti.Placeholder = "def <file>:<line>:<col>  |  hover <file>:<line>:<col>"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	return model{ctx: ctx, svc: svc, input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			return m, m.runQuery(line)
		}
	case resultMsg:
		m.results = append([]string{string(msg)}, m.results...)
		if len(m.results) > 20 {
			m.results = m.results[:20]
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) runQuery(line string) tea.Cmd {
	return func() tea.Msg {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return resultMsg(missStyle.Render("usage: def|hover <file>:<line>:<col>"))
		}

		q, err := parseTarget(fields[1])
		if err != nil {
			return resultMsg(missStyle.Render(err.Error()))
		}

		switch fields[0] {
		case "def":
			loc, ok := m.svc.Definition(m.ctx, q.file, q.text, q.col)
			if !ok {
				return resultMsg(missStyle.Render("no definition: " + fields[1]))
			}
			return resultMsg(resultStyle.Render(fmt.Sprintf("%s:%d:%d", loc.File, loc.Line+1, loc.Column+1)))
		case "hover":
			text, ok := m.svc.Hover(m.ctx, q.file, q.text, q.col)
			if !ok {
				return resultMsg(missStyle.Render("no documentation: " + fields[1]))
			}
			return resultMsg(resultStyle.Render(text))
		default:
			return resultMsg(missStyle.Render("unknown command: " + fields[0]))
		}
	}
}

func (m model) View() string {
	header := fmt.Sprintf("%s\n%s\n", titleStyle("Miden Assembly Navigator"),
		statusStyle.Render("enter runs the query, esc quits"))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	for _, r := range m.results {
		b.WriteString(r)
		b.WriteString("\n")
	}
	return docStyle.Render(b.String())
}
