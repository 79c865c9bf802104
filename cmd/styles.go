package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/bookrag/internal/answer"
	"github.com/Yates-Labs/bookrag/internal/orchestrator"
)

const (
	previewLength = 300
	ruleWidth     = 80
)

var (
	headerColor   = lipgloss.Color("#F780FF") // Bright pink
	questionColor = lipgloss.Color("#8BE9FD") // Cyan
	answerColor   = lipgloss.Color("#E9E9F4") // Light purple/white
	contextColor  = lipgloss.Color("#6272A4") // Muted purple
	numberColor   = lipgloss.Color("#FF79C6") // Pink
	errorColor    = lipgloss.Color("#FF5555") // Red
	successColor  = lipgloss.Color("#50FA7B") // Green

	headerStyle   = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(questionColor).Italic(true)
	answerStyle   = lipgloss.NewStyle().Foreground(answerColor)
	contextStyle  = lipgloss.NewStyle().Foreground(contextColor).Italic(true)
	numberStyle   = lipgloss.NewStyle().Foreground(numberColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(successColor)
	ruleStyle     = lipgloss.NewStyle().Foreground(contextColor)
)

func rule(ch string) string {
	return ruleStyle.Render(strings.Repeat(ch, ruleWidth))
}

// printAnswer prints the answer text followed by source previews
func printAnswer(ans *answer.Answer, showSources bool) {
	fmt.Println(headerStyle.Render("Answer:"))
	fmt.Println(answerStyle.Render(strings.TrimSpace(ans.Text)))
	fmt.Println()

	fmt.Println(headerStyle.Render(fmt.Sprintf("Sources: %d relevant chunks found", len(ans.Sources))))
	if !showSources {
		return
	}

	for i, src := range ans.Sources {
		fmt.Printf("%s %s\n",
			numberStyle.Render(fmt.Sprintf("Source %d (Page %d)", i+1, src.Page)),
			contextStyle.Render(fmt.Sprintf("score %.3f", src.Score)))
		fmt.Println(answerStyle.Render(orchestrator.Preview(src.Text, previewLength)))
		fmt.Println()
	}
}
