// Package tui provides a Bubble Tea terminal user interface for h2n2flac.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/h2n2flac/internal/config"
	"github.com/handiism/h2n2flac/internal/convert"
	"github.com/handiism/h2n2flac/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	recordingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateConverting
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   convert.ProgressLevel
}

// eventLog collects manager events from the conversion goroutine until the
// next tick drains them.
type eventLog struct {
	mu      sync.Mutex
	pending []LogEntry
}

func (l *eventLog) add(event convert.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, LogEntry{Message: event.Message, Level: event.Level})
}

func (l *eventLog) drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.pending
	l.pending = nil
	return entries
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state      State
	textInput  textinput.Model
	spinner    spinner.Model
	progress   progress.Model
	settings   *config.Settings
	logs       []LogEntry
	events     *eventLog
	recordings []string
	err        error

	// Conversion context
	ctx    context.Context
	cancel context.CancelFunc

	// Conversion manager reference
	manager *convert.Manager

	// Conversion progress
	totalRecordings int32
	doneRecordings  int32
	totalFrames     int64
	processedFrames int64

	// Options
	normalize bool
	format    model.OutputFormat
	keepGoing bool
	verbose   bool

	width  int
	height int
}

// NewModel creates a new TUI model starting from settings.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "/card/STEREO/FOLDER01 or SR001MS.WAV"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	format := model.FormatFLAC
	if f, err := model.ParseOutputFormat(settings.OutputFormat); err == nil {
		format = f
	}

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		events:    &eventLog{},
		ctx:       ctx,
		cancel:    cancel,
		normalize: settings.Normalize,
		format:    format,
		keepGoing: settings.ContinueOnError,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when initialization completes.
	InitDoneMsg struct {
		Recordings []string
		Manager    *convert.Manager
		Err        error
	}

	// ConvertDoneMsg is sent when all conversions complete.
	ConvertDoneMsg struct {
		Frames     int64
		Total      int64
		Recordings int32
		TotalR     int32
		Err        error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateConverting || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initializeConversion(), m.spinner.Tick, m.tickProgress())
			}

		// Option toggles use alt so they never reach the path input.
		case "alt+n":
			if m.state == StateInput {
				m.normalize = !m.normalize
			}
			return m, nil

		case "alt+o":
			if m.state == StateInput {
				if m.format == model.FormatFLAC {
					m.format = model.FormatVorbis
				} else {
					m.format = model.FormatFLAC
				}
			}
			return m, nil

		case "alt+k":
			if m.state == StateInput {
				m.keepGoing = !m.keepGoing
			}
			return m, nil

		case "alt+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}
			return m, nil

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new conversion
				m.state = StateInput
				m.logs = nil
				m.events = &eventLog{}
				m.recordings = nil
				m.err = nil
				m.doneRecordings = 0
				m.totalRecordings = 0
				m.processedFrames = 0
				m.totalFrames = 0
				m.manager = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		m.appendLogs(m.events.drain())
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.state == StateInitializing {
			m.recordings = msg.Recordings
			m.manager = msg.Manager
			m.state = StateConverting
			cmds = append(cmds, m.startConversion())
		}

	case ConvertDoneMsg:
		m.appendLogs(m.events.drain())
		m.processedFrames = msg.Frames
		m.totalFrames = msg.Total
		m.doneRecordings = msg.Recordings
		m.totalRecordings = msg.TotalR
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.state != StateInitializing && m.state != StateConverting {
			break
		}
		m.appendLogs(m.events.drain())
		if m.manager != nil {
			frames, total, done, totalR := m.manager.GetProgress()
			m.processedFrames = frames
			m.totalFrames = total
			m.doneRecordings = done
			m.totalRecordings = totalR

			cmds = append(cmds, m.progress.SetPercent(m.percent()))
		}
		cmds = append(cmds, m.tickProgress())

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// appendLogs adds entries to the visible log, hiding verbose ones unless
// verbose mode is on.
func (m *Model) appendLogs(entries []LogEntry) {
	for _, entry := range entries {
		if entry.Level == convert.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, entry)
	}
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) percent() float64 {
	if m.totalFrames > 0 {
		return float64(m.processedFrames) / float64(m.totalFrames)
	}
	if m.totalRecordings > 0 {
		return float64(m.doneRecordings) / float64(m.totalRecordings)
	}
	return 0
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("H2n Converter"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Merge Zoom H2n MS and XY recordings into one file"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateConverting:
		b.WriteString(m.viewConverting())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter recordings, directories or globs (space-separated):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Normalize (alt+n)\n", checkbox(m.normalize)))
	b.WriteString(fmt.Sprintf("  [%s] Output format (alt+o)\n", m.format))
	b.WriteString(fmt.Sprintf("  %s Continue after errors (alt+k)\n", checkbox(m.keepGoing)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (alt+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")

	outputDir := m.settings.OutputDir
	if outputDir == "" {
		outputDir = "beside the source files"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: %s", outputDir)))
	b.WriteString("\n")

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Looking for recordings..."))
	b.WriteString("\n\n")

	// Show logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewConverting() string {
	var b strings.Builder

	if len(m.recordings) > 0 {
		b.WriteString(successStyle.Render(fmt.Sprintf("Found %d recording(s):", len(m.recordings))))
		b.WriteString("\n")
		for i, rec := range m.recordings {
			if i == maxLogs {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  … and %d more", len(m.recordings)-maxLogs)))
				b.WriteString("\n")
				break
			}
			b.WriteString(recordingStyle.Render(fmt.Sprintf("  ♪ %s", rec)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Progress bar
	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Recordings: %d/%d | Frames: %d/%d",
		m.doneRecordings,
		m.totalRecordings,
		m.processedFrames,
		m.totalFrames,
	)))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Conversion Complete!\n\n"+
			"Recordings: %d\n"+
			"Format: %s\n"+
			"Normalized: %t",
		m.doneRecordings,
		m.format,
		m.normalize,
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case convert.LevelError:
			style = errorStyle
			prefix = "✗"
		case convert.LevelWarning:
			style = warningStyle
			prefix = "!"
		case convert.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case convert.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • alt+n: normalize • alt+o: format • alt+k: keep going • alt+v: verbose • esc: quit"
	case StateInitializing, StateConverting:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new conversion • q: quit"
	}
	return ""
}

// expandInputs splits the input line into paths, expanding glob patterns.
// A pattern matching nothing is kept as typed so the error names it.
func expandInputs(line string) []string {
	var inputs []string
	for _, field := range strings.Fields(line) {
		matches, err := filepath.Glob(field)
		if err != nil || len(matches) == 0 {
			inputs = append(inputs, field)
			continue
		}
		inputs = append(inputs, matches...)
	}
	return inputs
}

// initializeConversion finds recordings and creates the manager.
func (m *Model) initializeConversion() tea.Cmd {
	inputs := expandInputs(m.textInput.Value())

	// Apply options
	settings := *m.settings
	settings.Normalize = m.normalize
	settings.ContinueOnError = m.keepGoing
	settings.OutputFormat = m.format.String()

	ctx := m.ctx
	events := m.events
	format := m.format

	return func() tea.Msg {
		manager := convert.NewManager(&settings, format, nil, events.add)

		if err := manager.Initialize(ctx, inputs); err != nil {
			return InitDoneMsg{Err: err}
		}

		return InitDoneMsg{
			Recordings: manager.GetRecordingNames(),
			Manager:    manager,
		}
	}
}

// startConversion runs the conversion in background.
func (m *Model) startConversion() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		if manager == nil {
			return ConvertDoneMsg{Err: fmt.Errorf("no manager")}
		}

		err := manager.Run(ctx)
		frames, total, done, totalR := manager.GetProgress()

		return ConvertDoneMsg{
			Frames:     frames,
			Total:      total,
			Recordings: done,
			TotalR:     totalR,
			Err:        err,
		}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
