// Package tui provides a terminal user interface for midistream
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/james-see/midistream/pkg/decode"
	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/notes"
)

// notes shown under the track table
const previewNotes = 12

var (
	phosphor = lipgloss.Color("#39FF14")
	amber    = lipgloss.Color("#FFB000")
	silver   = lipgloss.Color("#C0C0C0")
	charcoal = lipgloss.Color("#333333")
	errorRed = lipgloss.Color("#FF0000")
	dimGray  = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(phosphor).
			Background(charcoal).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silver).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(phosphor).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(amber).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorRed).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(phosphor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(phosphor).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateDecoding
	StateResult
)

// Action is what happens to the picked file
type Action int

const (
	ActionInspect Action = iota
	ActionVerify
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
}

var menuItems = []MenuItem{
	{Title: "Inspect", Description: "Decode every track and preview the merged note stream", Action: ActionInspect},
	{Title: "Verify", Description: "Cross-check note events against the gomidi reader", Action: ActionVerify},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Inspection is the outcome of decoding one file
type Inspection struct {
	Summary decode.Summary
	Tracks  []decode.TrackResult
	Notes   []notes.Note
	NoteErr error
	Report  *decode.Report
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	action       MenuItem
	workers      int
	result       *Inspection
	err          error
	width        int
	height       int
}

// decodeDoneMsg signals decoding completion
type decodeDoneMsg struct {
	result *Inspection
	err    error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model. workers bounds the parallel track decoders.
func New(workers int) Model {
	fp := filepicker.New()
	fp.AllowedTypes = midifile.Extensions
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(phosphor)

	return Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		workers:    workers,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive every message while it is shown
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateDecoding
			return m, tea.Batch(m.spinner.Tick, m.performDecode())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case decodeDoneMsg:
		m.state = StateResult
		m.result = msg.result
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		m.action = menuItems[m.menuIndex]
		if m.action.Action == ActionExit {
			return m, tea.Quit
		}
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.result = nil
		m.selectedFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performDecode() tea.Cmd {
	path, action, workers := m.selectedFile, m.action.Action, m.workers
	return func() tea.Msg {
		res, err := Inspect(context.Background(), path, action, workers)
		return decodeDoneMsg{result: res, err: err}
	}
}

// Inspect decodes the file at path. ActionVerify additionally runs the
// gomidi cross-check.
func Inspect(ctx context.Context, path string, action Action, workers int) (*Inspection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	f, err := midifile.Parse(data)
	if err != nil {
		return nil, err
	}

	if action == ActionVerify {
		rep, err := decode.Verify(data)
		if err != nil {
			return nil, err
		}
		return &Inspection{Report: rep}, nil
	}

	tracks, err := decode.Tracks(ctx, f, workers)
	if err != nil {
		return nil, err
	}
	res := &Inspection{Summary: decode.Summarize(f, tracks), Tracks: tracks}

	it, err := decode.Notes(f)
	if err != nil {
		return nil, err
	}
	res.Notes, res.NoteErr = notes.Collect[notes.Note](it, previewNotes)
	return res, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateDecoding:
		s.WriteString(m.viewDecoding())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" MIDISTREAM "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(amber).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewDecoding() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" DECODING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Reading %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  " + strings.ToLower(m.action.Title)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	switch {
	case m.err != nil:
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Decoding failed: %s", m.err.Error())))
	case m.result != nil && m.result.Report != nil:
		s.WriteString(renderReport(filepath.Base(m.selectedFile), m.result))
	case m.result != nil:
		s.WriteString(renderInspection(filepath.Base(m.selectedFile), m.result))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func renderInspection(name string, res *Inspection) string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" " + strings.ToUpper(name) + " "))
	s.WriteString("\n\n")
	s.WriteString(res.Summary.String())
	s.WriteString("\n\n")

	for _, t := range res.Tracks {
		line := fmt.Sprintf("track %-3d %-24s %8s events %6s notes",
			t.Index, trackLabel(t), humanize.Comma(int64(len(t.Events))), humanize.Comma(int64(t.NoteCount())))
		if t.Err != nil {
			s.WriteString(errorStyle.Render("✗ " + line))
			s.WriteString("\n")
			s.WriteString(errorStyle.Render("    " + t.Err.Error()))
		} else {
			s.WriteString(menuStyle.Render(line))
		}
		s.WriteString("\n")
	}

	if len(res.Notes) > 0 {
		s.WriteString(statusStyle.Render("first notes"))
		s.WriteString("\n")
		for _, n := range res.Notes {
			s.WriteString(menuStyle.Render(fmt.Sprintf("%8d  +%-6d trk %-3d ch %-2d key %-3d vel %d",
				n.Time, n.Length, n.Track, n.Channel, n.Key, n.Velocity)))
			s.WriteString("\n")
		}
	}
	if res.NoteErr != nil {
		s.WriteString(errorStyle.Render("note stream stopped: " + res.NoteErr.Error()))
	}
	return strings.TrimRight(s.String(), "\n")
}

func renderReport(name string, res *Inspection) string {
	var s strings.Builder
	rep := res.Report

	if rep.OK() {
		s.WriteString(titleStyle.Render(" VERIFIED "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render(fmt.Sprintf("✓ %s: %s note events agree across %d tracks",
			name, humanize.Comma(int64(rep.Marks)), rep.Tracks)))
		return s.String()
	}

	s.WriteString(titleStyle.Render(" MISMATCH "))
	s.WriteString("\n\n")
	for _, mm := range rep.Mismatches {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ track %d at %d: %s", mm.Track, mm.Index, mm.Detail)))
		s.WriteString("\n")
	}
	return strings.TrimRight(s.String(), "\n")
}

func trackLabel(t decode.TrackResult) string {
	name := t.Name()
	if name == "" {
		return "-"
	}
	if len(name) > 24 {
		return name[:21] + "..."
	}
	return name
}

func asciiLogo() string {
	logo := `
            _     _ _     _
  _ __ ___ (_) __| (_)___| |_ _ __ ___  __ _ _ __ ___
 | '_ ` + "`" + ` _ \| |/ _` + "`" + ` | / __| __| '__/ _ \/ _` + "`" + ` | '_ ` + "`" + ` _ \
 | | | | | | | (_| | \__ \ |_| | |  __/ (_| | | | | | |
 |_| |_| |_|_|\__,_|_|___/\__|_|  \___|\__,_|_| |_| |_|
`
	return lipgloss.NewStyle().Foreground(phosphor).Render(logo)
}

// Run starts the TUI application
func Run(workers int) error {
	p := tea.NewProgram(New(workers), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
