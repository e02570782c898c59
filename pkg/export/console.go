package export

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dd0wney/cluso-flownet/pkg/analytics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// ConsoleSink prints the unit input listing and a short summary
type ConsoleSink struct {
	Out io.Writer
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Write(ctx context.Context, report *analytics.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.Out, RenderConsole(report))
	return err
}

// RenderConsole formats report for a terminal
func RenderConsole(report *analytics.Report) string {
	rows := make([][]string, len(report.Inputs))
	for i, p := range report.Inputs {
		rows[i] = []string{p.Unit, p.Stream}
	}

	inputs := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("UNIT", "INPUT STREAM").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	summary := table.New().
		Border(lipgloss.NormalBorder()).
		Rows(
			[]string{"units", strconv.Itoa(report.UnitCount)},
			[]string{"streams", strconv.Itoa(report.StreamCount)},
			[]string{"orphan streams", strconv.Itoa(len(report.Orphans))},
			[]string{"fan-out streams", strconv.Itoa(len(report.FanOut))},
		).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })

	return fmt.Sprintf("%s\n%s\n%s\n%s\n",
		titleStyle.Render("Unit inputs"), inputs.String(),
		titleStyle.Render("Summary"), summary.String())
}
