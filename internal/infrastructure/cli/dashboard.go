package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/launchpath/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/launchpath/pkg/domain/achievement"
	"github.com/felixgeelhaar/launchpath/pkg/domain/analytics"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
	"github.com/spf13/cobra"
)

const historyDays = 14

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <user>",
	Short: "Interactive view of the user's active plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("LAUNCHPATH_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		return withServices(func(services *wiring.AppServices) error {
			p := tea.NewProgram(newDashboardModel(cmd.Context(), services, args[0]), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard run failed: %w", err)
			}
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

var dashboardBox = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

type dashboardKeyMap struct {
	Done    key.Binding
	Skip    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var dashboardKeys = dashboardKeyMap{
	Done: key.NewBinding(
		key.WithKeys("d", "enter"),
		key.WithHelp("d", "done"),
	),
	Skip: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "skip"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type dashboardModel struct {
	ctx      context.Context
	services *wiring.AppServices
	userID   string

	plan     *planning.Plan
	forecast analytics.ForecastResult
	history  []achievement.StreakRecord
	streak   int

	table  table.Model
	chart  barchart.Model
	width  int
	status string
	err    error
}

func newDashboardModel(ctx context.Context, services *wiring.AppServices, userID string) dashboardModel {
	t := table.New(
		table.WithColumns(taskColumns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := tableStyles()
	s.Selected = s.Selected.Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return dashboardModel{
		ctx:      ctx,
		services: services,
		userID:   userID,
		table:    t,
		chart:    barchart.New(56, 8),
		width:    80,
	}
}

type dashboardDataMsg struct {
	plan     *planning.Plan
	forecast analytics.ForecastResult
	history  []achievement.StreakRecord
	streak   int
	err      error
}

type dashboardActionMsg struct {
	status string
	err    error
}

func (m dashboardModel) Init() tea.Cmd { return m.load() }

func (m dashboardModel) load() tea.Cmd {
	return func() tea.Msg {
		plan, err := m.services.Plans.ActivePlan(m.ctx, m.userID)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		forecast, _, err := m.services.Analytics.Forecast(m.ctx, m.userID)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		history, err := m.services.Analytics.StreakHistory(m.ctx, m.userID, historyDays)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		streak, err := m.services.Achievements.GetCurrentStreak(m.ctx, m.userID)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		return dashboardDataMsg{plan: plan, forecast: forecast, history: history, streak: streak}
	}
}

func (m dashboardModel) selected() (planning.Task, bool) {
	if m.plan == nil {
		return planning.Task{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.plan.Tasks) {
		return planning.Task{}, false
	}
	return m.plan.Tasks[i], true
}

func (m dashboardModel) resolve(skip bool) tea.Cmd {
	task, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		if skip {
			res, err := m.services.Tasks.MarkSkip(m.ctx, task.ID, "")
			if err != nil {
				return dashboardActionMsg{err: MapError(err)}
			}
			status := "Skipped: " + task.Title
			if res.Adjustment != nil && res.Adjustment.Applied {
				status += " (plan adjusted)"
			}
			return dashboardActionMsg{status: status}
		}
		res, err := m.services.Tasks.MarkDone(m.ctx, task.ID, "")
		if err != nil {
			return dashboardActionMsg{err: MapError(err)}
		}
		status := "Done: " + task.Title
		for _, a := range res.Awarded {
			status += "  ★ " + a.Title
		}
		return dashboardActionMsg{status: status}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.buildChart()
		return m, nil

	case dashboardDataMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.plan = msg.plan
		m.forecast = msg.forecast
		m.history = msg.history
		m.streak = msg.streak
		m.table.SetRows(taskRows(m.plan.Tasks))
		m.buildChart()
		return m, nil

	case dashboardActionMsg:
		m.status = msg.status
		m.err = msg.err
		return m, m.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, dashboardKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, dashboardKeys.Done):
			return m, m.resolve(false)
		case key.Matches(msg, dashboardKeys.Skip):
			return m, m.resolve(true)
		case key.Matches(msg, dashboardKeys.Refresh):
			return m, m.load()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *dashboardModel) buildChart() {
	w := m.width - 8
	if w < 28 {
		w = 28
	}
	m.chart = barchart.New(w, 8)

	bars := make([]barchart.BarData, 0, len(m.history))
	for _, r := range m.history {
		bars = append(bars, barchart.BarData{
			Label: r.Date.Format("02"),
			Values: []barchart.BarValue{{
				Name:  clock.FormatDate(r.Date),
				Value: float64(r.TasksCompleted),
				Style: statusDone,
			}},
		})
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m dashboardModel) View() string {
	if m.plan == nil {
		if m.err != nil {
			return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.\n", m.err)
		}
		return "Loading...\n"
	}

	pace := fmt.Sprintf("Streak %d days · %.2f tasks/day (%s)", m.streak, m.forecast.Velocity, m.forecast.Trend.Direction)
	if !m.forecast.FinishDate.IsZero() {
		pace += " · projected finish " + clock.FormatDate(m.forecast.FinishDate)
	}

	footer := mutedStyle.Render(helpLine(dashboardKeys.Done, dashboardKeys.Skip, dashboardKeys.Refresh, dashboardKeys.Quit) + "  ↑/↓ navigate")
	status := ""
	switch {
	case m.err != nil:
		status = errorStyle.Render(m.err.Error())
	case m.status != "":
		status = statusDone.Render(m.status)
	}

	return dashboardBox.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			planHeader(m.plan),
			pace,
			"",
			m.table.View(),
			"",
			mutedStyle.Render(fmt.Sprintf("Completions, last %d days", historyDays)),
			m.chart.View(),
			status,
			footer,
		),
	) + "\n"
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return strings.Join(parts, "  ")
}
