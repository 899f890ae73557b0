package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/launchpath/pkg/domain/clock"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	badgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)

	statusDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusSent    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusMoved   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func renderTaskStatus(s planning.TaskStatus) string {
	switch s {
	case planning.StatusDone:
		return statusDone.Render(string(s))
	case planning.StatusSent:
		return statusSent.Render(string(s))
	case planning.StatusSkipped:
		return statusSkipped.Render(string(s))
	case planning.StatusRescheduled:
		return statusMoved.Render(string(s))
	}
	return string(s)
}

var taskColumns = []table.Column{
	{Title: "Day", Width: 4},
	{Title: "Due", Width: 10},
	{Title: "Status", Width: 11},
	{Title: "Category", Width: 10},
	{Title: "Min", Width: 4},
	{Title: "Title", Width: 40},
	{Title: "ID", Width: 36},
}

func taskRows(tasks []planning.Task) []table.Row {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, table.Row{
			strconv.Itoa(t.DayNumber),
			clock.FormatDate(t.DueDate),
			string(t.Status),
			string(t.Category),
			strconv.Itoa(t.EstimatedMinutes),
			t.Title,
			t.ID,
		})
	}
	return rows
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Bold(true)
	return s
}

// taskTable renders tasks as a static table.
func taskTable(tasks []planning.Task) string {
	rows := taskRows(tasks)
	tbl := table.New(
		table.WithColumns(taskColumns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	s := tableStyles()
	s.Selected = lipgloss.NewStyle()
	tbl.SetStyles(s)
	return tbl.View()
}

func planHeader(p *planning.Plan) string {
	return fmt.Sprintf("%s  %s\n%s",
		titleStyle.Render(p.Title),
		mutedStyle.Render(fmt.Sprintf("phase %d · %s", p.Phase, p.Status)),
		mutedStyle.Render(fmt.Sprintf("%s → %s · %d%% complete · %s",
			clock.FormatDate(p.StartDate), clock.FormatDate(p.EndDate), p.CompletionPct(), p.ID)),
	)
}
