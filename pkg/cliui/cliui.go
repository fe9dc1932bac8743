// Package cliui provides terminal output helpers for huddle CLI commands:
// a progress step, styled listings, confidence badges and markdown rendering.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/huddle/pkg/journal"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	midStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const frameInterval = 80 * time.Millisecond

var frames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step animates msg on w while fn runs, then leaves a single line with a
// ✓ or ✗ and the elapsed time. It returns fn's error.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(w, "\r  %s %s", highStyle.Render(frames[i%len(frames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	start := time.Now()
	err := fn()
	close(done)
	<-stopped

	mark := SuccessMark
	if err != nil {
		mark = FailMark
	}
	fmt.Fprintf(w, "\r  %s %s %s\n", mark, msg, DimStyle.Render("("+elapsed(time.Since(start))+")"))
	return err
}

func elapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Confidence renders a [0,1] score, colored by how much to trust it.
func Confidence(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.7:
		return highStyle.Render(text)
	case c >= 0.4:
		return midStyle.Render(text)
	default:
		return lowStyle.Render(text)
	}
}

// Age describes how long before now t was, coarsely ("just now", "5m ago",
// "3h ago", "2d ago").
func Age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// Secret masks all but the last four characters of a credential.
func Secret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", 8) + v[len(v)-4:]
}

// RenderTranscripts writes one styled line per journaled meeting.
func RenderTranscripts(w io.Writer, infos []journal.Info, now time.Time) {
	if len(infos) == 0 {
		fmt.Fprintf(w, "  %s\n", DimStyle.Render("No transcripts yet."))
		return
	}

	for _, info := range infos {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			NameStyle.Render(info.MeetingID),
			ValueStyle.Render(fmt.Sprintf("%d utterances", info.Utterances)),
			DimStyle.Render(Age(info.ModTime, now)),
		)
	}
}

// RenderMarkdown renders markdown for the terminal with glamour. On failure
// the input is returned alongside the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}
	return r.Render(content)
}
