package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func printStep(msg string) {
	fmt.Println(stepStyle.Render("→ " + msg))
}

func printScreen(desc studio.ScreenDescription) {
	fmt.Println(panelStyle.Render(renderScreen(desc)))
}

// renderScreen lays out a screen description as terminal text.
func renderScreen(desc studio.ScreenDescription) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(desc.Title))
	if desc.Subtitle != "" {
		b.WriteString("\n" + subtitleStyle.Render(desc.Subtitle))
	}

	for _, f := range desc.Fields {
		if f.Value == "" {
			continue
		}
		b.WriteString("\n" + labelStyle.Render(f.Label+":") + " " + f.Value)
	}

	for _, img := range desc.Images {
		if img.URL == "" {
			continue
		}
		caption := img.Caption
		if caption == "" {
			caption = fmt.Sprintf("%s #%d", img.Kind, img.Index+1)
		}
		b.WriteString("\n" + labelStyle.Render(caption+":") + " " + urlStyle.Render(img.URL))
	}

	if len(desc.Actions) > 0 {
		names := make([]string, len(desc.Actions))
		for i, a := range desc.Actions {
			names[i] = string(a)
		}
		b.WriteString("\n" + mutedStyle.Render("next: "+strings.Join(names, ", ")))
	}
	return b.String()
}
