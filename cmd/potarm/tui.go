package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/potarm/pkg/arm"
	"github.com/gwillem/potarm/pkg/collect"
)

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 8 // status line + log box
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Joint colors - distinct colors for each joint
var jointColors = map[arm.JointName]string{
	arm.Shoulder: "196", // red
	arm.Elbow:    "208", // orange
	arm.Wrist:    "226", // yellow
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type loopModel struct {
	ctrl     *collect.Controller
	title    string
	footer   func() string // extra status, e.g. episode dir + row count
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	quitting bool
	last     collect.TickRecord
	haveTick bool
}

func (m *loopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any joint angle changed since the last tick, so
// the chart freezes while the arm is idle.
func (m *loopModel) hasMovement(rec collect.TickRecord) bool {
	if !m.haveTick {
		return true
	}
	for name, s := range rec.Joints {
		if prev, ok := m.last.Joints[name]; !ok || s.Angle != prev.Angle {
			return true
		}
	}
	return m.last.StepperPosition != rec.StepperPosition
}

// Messages from the controller
type stateMsg collect.State
type logMsg string

func waitForState(ctrl *collect.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *collect.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *loopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *loopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func newLoopModel(ctrl *collect.Controller, title string, footer func() string) loopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 180),
	)

	for _, name := range arm.ServoJoints() {
		color := jointColors[name]
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}

	return loopModel{
		ctrl:   ctrl,
		title:  title,
		footer: footer,
		chart:  &chart,
	}
}

func (m loopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m loopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := collect.State(msg)
		if state.Record.Joints != nil {
			if m.hasMovement(state.Record) {
				for _, name := range arm.ServoJoints() {
					if s, ok := state.Record.Joints[name]; ok {
						m.chart.PushDataSet(string(name), s.Angle)
					}
				}
				m.chart.DrawAll()
			}
			m.last = state.Record
			m.haveTick = true
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m loopModel) View() string {
	if m.quitting {
		return "Stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Status line: stepper state, stale channels, extra footer
	sb.WriteString(statusStyle.Render(m.statusLine()))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m loopModel) statusLine() string {
	var parts []string
	if m.haveTick {
		parts = append(parts, fmt.Sprintf("base %d/%d steps",
			m.last.StepperPosition, m.last.StepperTarget))
		var stale []string
		for name, s := range m.last.Joints {
			if s.Stale {
				stale = append(stale, string(name))
			}
		}
		if len(stale) > 0 {
			parts = append(parts, "stale: "+strings.Join(stale, ","))
		}
	}
	if m.footer != nil {
		parts = append(parts, m.footer())
	}
	return strings.Join(parts, "  ·  ")
}

func renderLegend() string {
	var items []string
	for _, name := range arm.ServoJoints() {
		color := jointColors[name]
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		item := colorStyle.Render("━━") + " " + string(name)
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}
