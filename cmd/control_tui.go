// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/rtsctl/internal/control"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// remoteItem is a remote in the selection list
type remoteItem struct {
	status control.RemoteStatus
}

func (r remoteItem) Title() string { return r.status.Name }
func (r remoteItem) Description() string {
	return fmt.Sprintf("%s  code %d", r.status.Address, r.status.RollingCode)
}
func (r remoteItem) FilterValue() string { return r.status.Name }

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	ctrl     *control.Controller
	connInfo string

	remoteList  list.Model
	repetitions int
	sending     bool

	eventLog      []logEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type sendResultMsg struct {
	result control.Result
	err    error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(ctrl *control.Controller, connInfo string) controlModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	remoteList := list.New([]list.Item{}, delegate, 30, 10)
	remoteList.Title = "Remotes"
	remoteList.SetShowStatusBar(false)
	remoteList.SetShowHelp(false)
	remoteList.SetFilteringEnabled(false)

	m := controlModel{
		ctrl:          ctrl,
		connInfo:      connInfo,
		remoteList:    remoteList,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.refreshRemotes()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return nil
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case sendResultMsg:
		m.sending = false
		m.handleSendResult(msg)
		m.refreshRemotes()
	}

	return m, nil
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "u":
		return m.send(rts.CommandUp)
	case "d":
		return m.send(rts.CommandDown)
	case "m", "s":
		return m.send(rts.CommandMy)
	case "p":
		return m.send(rts.CommandProg)

	case "+", "=":
		if m.repetitions < control.MaxRepetitions {
			m.repetitions++
		}
	case "-":
		if m.repetitions > 0 {
			m.repetitions--
		}

	case "up", "k", "down", "j", "home", "end":
		var cmd tea.Cmd
		m.remoteList, cmd = m.remoteList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// send starts a transmission in the background. Only one runs at a time.
func (m controlModel) send(command rts.Command) (tea.Model, tea.Cmd) {
	selected := m.selectedRemote()
	if selected == nil {
		return m, nil
	}
	if m.sending {
		m.addLogEntry("Busy: previous command still transmitting", true)
		return m, nil
	}

	m.sending = true
	ctrl := m.ctrl
	name := selected.status.Name
	reps := m.repetitions
	return m, func() tea.Msg {
		res, err := ctrl.Send(context.Background(), name, command, reps)
		return sendResultMsg{result: res, err: err}
	}
}

func (m *controlModel) handleSendResult(msg sendResultMsg) {
	res := msg.result
	if msg.err == nil {
		m.addLogEntry(fmt.Sprintf("%s: sent %s (code %d, %d frame(s))",
			res.Remote, strings.ToUpper(res.Command.String()), res.RollingCode, res.Frames), false)
		return
	}

	var storageErr *rts.StorageError
	if errors.As(msg.err, &storageErr) {
		m.addLogEntry(fmt.Sprintf("%s: sent %s but rolling code was not saved: %v",
			res.Remote, strings.ToUpper(res.Command.String()), storageErr.Err), true)
		return
	}
	var unconfirmed *rts.UnconfirmedError
	if errors.As(msg.err, &unconfirmed) {
		m.addLogEntry(fmt.Sprintf("%s: %s not confirmed, rolling code advanced to %d",
			res.Remote, strings.ToUpper(res.Command.String()), unconfirmed.RollingCode), true)
		return
	}
	m.addLogEntry(fmt.Sprintf("%s: %v", res.Remote, msg.err), true)
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("RTSCTL CONTROL"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit", m.connInfo)))
	s.WriteString("\n\n")

	// Layout: left panel (remotes) | right panel (buttons)
	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}

	remotePanel := boxStyle.Width(leftWidth).Render(m.remoteList.View())
	controlPanel := boxStyle.Width(rightWidth).Render(
		m.renderControlPanel(labelStyle, valueStyle, headerStyle, warningStyle, buttonStyle))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, remotePanel, " ", controlPanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderEventLog(labelStyle, warningStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderControlPanel(labelStyle, valueStyle, headerStyle, warningStyle, buttonStyle lipgloss.Style) string {
	var s strings.Builder

	selected := m.selectedRemote()
	if selected == nil {
		s.WriteString(headerStyle.Render("No remote selected"))
		return s.String()
	}

	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Selected:"), selected.status.Name))
	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Address:"), valueStyle.Render(selected.status.Address.String())))
	s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Next code:"),
		valueStyle.Render(fmt.Sprintf("%d", selected.status.RollingCode))))
	s.WriteString(fmt.Sprintf("%s %s\n\n", labelStyle.Render("Repetitions:"),
		valueStyle.Render(fmt.Sprintf("%d", m.repetitions))))

	buttons := []string{
		buttonStyle.Render("u UP"),
		buttonStyle.Render("m MY"),
		buttonStyle.Render("d DOWN"),
		buttonStyle.Render("p PROG"),
	}
	s.WriteString(strings.Join(buttons, " "))
	s.WriteString("\n")

	if m.sending {
		s.WriteString("\n")
		s.WriteString(warningStyle.Render("Transmitting..."))
	}

	return s.String()
}

func (m controlModel) renderEventLog(labelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// State Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) refreshRemotes() {
	remotes := m.ctrl.Remotes()
	items := make([]list.Item, len(remotes))
	for i, r := range remotes {
		items[i] = remoteItem{status: r}
	}
	m.remoteList.SetItems(items)
}

func (m controlModel) selectedRemote() *remoteItem {
	item, ok := m.remoteList.SelectedItem().(remoteItem)
	if !ok {
		return nil
	}
	return &item
}

func (m *controlModel) updateListSize() {
	listHeight := m.height - 16
	if listHeight < 4 {
		listHeight = 4
	}
	m.remoteList.SetSize(28, listHeight)
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}
