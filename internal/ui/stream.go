// Package ui renders the streaming narrative generation as a terminal view.
//
// The stream model follows the model text as it arrives chunk by chunk,
// alongside pipeline progress updates, and settles on the validated result
// (or error) once the run finishes.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/tasks"
)

// StreamResult is the terminal outcome of a streamed generation run.
type StreamResult struct {
	Narrative *models.PlaylistNarrative
	Err       error
}

type chunkMsg string
type progressMsg tasks.ProgressUpdate
type doneMsg StreamResult

// StreamModel is the bubbletea model for a streamed generation run.
type StreamModel struct {
	spinner  spinner.Model
	chunks   <-chan string
	progress <-chan tasks.ProgressUpdate
	done     <-chan StreamResult

	content  strings.Builder
	status   string
	result   *StreamResult
	quitting bool
	width    int
}

// NewStreamModel creates a stream view fed by the given channels. The done
// channel must receive exactly one result.
func NewStreamModel(chunks <-chan string, progress <-chan tasks.ProgressUpdate, done <-chan StreamResult) StreamModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.warn

	return StreamModel{
		spinner:  sp,
		chunks:   chunks,
		progress: progress,
		done:     done,
		status:   "Warming up the sleigh...",
		width:    80,
	}
}

func (m StreamModel) waitForChunk() tea.Cmd {
	return func() tea.Msg {
		if chunk, ok := <-m.chunks; ok {
			return chunkMsg(chunk)
		}
		return nil
	}
}

func (m StreamModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-m.progress; ok {
			return progressMsg(update)
		}
		return nil
	}
}

func (m StreamModel) waitForDone() tea.Cmd {
	return func() tea.Msg {
		return doneMsg(<-m.done)
	}
}

func (m StreamModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChunk(), m.waitForProgress(), m.waitForDone())
}

func (m StreamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case chunkMsg:
		m.content.WriteString(string(msg))
		return m, m.waitForChunk()

	case progressMsg:
		m.status = msg.Message
		return m, m.waitForProgress()

	case doneMsg:
		result := StreamResult(msg)
		m.result = &result
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m StreamModel) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Generating your festive playlist"))
	b.WriteString("\n")

	if m.result != nil {
		if m.result.Err != nil {
			b.WriteString(styles.err.Render("✗ " + m.result.Err.Error()))
		} else {
			b.WriteString(styles.ok.Render("✓ " + m.result.Narrative.PlaylistName))
		}
		b.WriteString("\n")
		return b.String()
	}

	if !m.quitting {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.status)
		b.WriteString("\n\n")
	}

	b.WriteString(styles.help.Render(tail(m.content.String(), 12, m.width)))
	b.WriteString("\n")
	return b.String()
}

// Result returns the run outcome, nil when the view was quit early.
func (m StreamModel) Result() *StreamResult {
	return m.result
}

// tail wraps content to width and keeps the last n lines, so the view
// follows the stream like a teleprompter.
func tail(content string, n, width int) string {
	if width < 20 {
		width = 20
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		for len(line) > width {
			lines = append(lines, line[:width])
			line = line[width:]
		}
		lines = append(lines, line)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
