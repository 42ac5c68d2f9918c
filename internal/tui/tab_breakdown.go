package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripgate/internal/cli"
	"github.com/theirongolddev/tripgate/internal/tui/components"
	"github.com/theirongolddev/tripgate/internal/tui/theme"
)

func (a App) renderModelsTab(cw int) string {
	t := theme.Active
	models := a.stats.ByModel

	innerW := components.CardInnerWidth(cw)
	fixedCols := 8 + 10 + 10 + 10 + 6 // Calls, Input, Output, Cost, Share
	gaps := 5
	nameW := max(14, innerW-fixedCols-gaps)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	costStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	shareStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface)

	modelColors := []lipgloss.Color{t.BlueBright, t.Cyan, t.Magenta, t.Yellow, t.Green}
	nameStyles := make([]lipgloss.Style, len(modelColors))
	for i, color := range modelColors {
		nameStyles[i] = lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	}

	var body strings.Builder
	if len(models) == 0 {
		body.WriteString(mutedStyle.Render("No usage in this range."))
		return components.ContentCard("Model Usage", body.String(), cw)
	}

	if a.isCompactLayout() {
		nameW = max(10, innerW-6-10-8-3)
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %8s %10s %6s", nameW, "Model", "Calls", "Cost", "Share")))
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(strings.Repeat("─", nameW+27)))
		body.WriteString("\n")

		for i, ms := range models {
			body.WriteString(nameStyles[i%len(modelColors)].Render(fmt.Sprintf("%-*s", nameW, truncStr(shortModel(ms.Model), nameW))))
			body.WriteString(rowStyle.Render(fmt.Sprintf(" %8s", cli.FormatNumber(int64(ms.Requests)))))
			body.WriteString(costStyle.Render(fmt.Sprintf(" %10s", cli.FormatCost(ms.Cost))))
			body.WriteString(shareStyle.Render(fmt.Sprintf(" %5.1f%%", ms.SharePercent)))
			body.WriteString("\n")
		}
	} else {
		body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %8s %10s %10s %10s %6s", nameW, "Model", "Calls", "Input", "Output", "Cost", "Share")))
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
		body.WriteString("\n")

		for i, ms := range models {
			body.WriteString(nameStyles[i%len(modelColors)].Render(fmt.Sprintf("%-*s", nameW, truncStr(shortModel(ms.Model), nameW))))
			body.WriteString(rowStyle.Render(fmt.Sprintf(" %8s %10s %10s",
				cli.FormatNumber(int64(ms.Requests)),
				cli.FormatTokens(ms.InputTokens),
				cli.FormatTokens(ms.OutputTokens))))
			body.WriteString(costStyle.Render(fmt.Sprintf(" %10s", cli.FormatCost(ms.Cost))))
			body.WriteString(shareStyle.Render(fmt.Sprintf(" %5.1f%%", ms.SharePercent)))
			body.WriteString("\n")
		}
	}

	return components.ContentCard("Model Usage", body.String(), cw)
}

func (a App) renderActionsTab(cw int) string {
	t := theme.Active
	actions := a.stats.ByAction

	innerW := components.CardInnerWidth(cw)
	barW := 20
	nameW := max(16, innerW-8-10-10-barW-4)
	if a.isCompactLayout() {
		barW = 0
		nameW = max(12, innerW-8-10-10-3)
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface)
	costStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var body strings.Builder
	if len(actions) == 0 {
		body.WriteString(mutedStyle.Render("No usage in this range."))
		return components.ContentCard("Actions", body.String(), cw)
	}

	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %8s %10s %10s", nameW, "Action", "Calls", "Tokens", "Cost")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	for _, as := range actions {
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(as.Action, nameW))))
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %8s %10s",
			cli.FormatNumber(int64(as.Requests)),
			cli.FormatTokens(as.Tokens()))))
		body.WriteString(costStyle.Render(fmt.Sprintf(" %10s", cli.FormatCost(as.Cost))))
		if barW > 0 {
			filled := int(as.SharePercent / 100 * float64(barW))
			body.WriteString(barStyle.Render(" " + strings.Repeat("█", filled) + strings.Repeat(" ", barW-filled)))
		}
		body.WriteString("\n")
	}

	return components.ContentCard("Actions", body.String(), cw)
}
