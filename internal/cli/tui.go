package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/sheet"
	"github.com/matzehuels/labelsheet/pkg/source"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EditorModel - Manual code entry
// =============================================================================

// EditorModel is the bubbletea model for entering codes one field at a time.
//
// Fields keep their order. Every change is pushed to the [source.Store]; while
// the store holds imported data the fields are read-only until the import is
// cleared with ctrl+x.
type EditorModel struct {
	Store  *source.Store
	Grid   sheet.Grid
	Fields []string
	Cursor int
	Height int
	Offset int

	// Saved is set when the user confirmed with ctrl+s.
	Saved bool
	// Err is the last arbitration error shown in the status line.
	Err error
}

// NewEditorModel creates an editor over store. Existing manual fields are
// loaded; an empty store starts with one blank field.
func NewEditorModel(store *source.Store, grid sheet.Grid) EditorModel {
	fields := store.ManualFields()
	if store.Mode() == source.Import {
		fields = store.Codes()
	}
	if len(fields) == 0 {
		fields = []string{""}
	}
	return EditorModel{Store: store, Grid: grid, Fields: fields, Height: 15}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.Saved = true
			return m, tea.Quit
		case tea.KeyCtrlX:
			m.Store.Clear()
			m.Fields = []string{""}
			m.Cursor, m.Offset = 0, 0
			m.Err = nil
			return m, nil
		case tea.KeyUp:
			m.move(-1)
			return m, nil
		case tea.KeyDown:
			m.move(1)
			return m, nil
		}

		if !m.Store.ManualEnabled() {
			m.Err = source.ErrManualDisabled
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			m.Fields = append(m.Fields[:m.Cursor+1], append([]string{""}, m.Fields[m.Cursor+1:]...)...)
			m.move(1)
		case tea.KeyBackspace:
			f := []rune(m.Fields[m.Cursor])
			if len(f) > 0 {
				m.Fields[m.Cursor] = string(f[:len(f)-1])
			} else if len(m.Fields) > 1 {
				m.Fields = append(m.Fields[:m.Cursor], m.Fields[m.Cursor+1:]...)
				m.move(-1)
			}
		case tea.KeyCtrlD:
			if len(m.Fields) > 1 {
				m.Fields = append(m.Fields[:m.Cursor], m.Fields[m.Cursor+1:]...)
				if m.Cursor >= len(m.Fields) {
					m.Cursor = len(m.Fields) - 1
				}
			} else {
				m.Fields[0] = ""
			}
		case tea.KeyRunes, tea.KeySpace:
			m.Fields[m.Cursor] += string(msg.Runes)
		default:
			return m, nil
		}
		m.Err = m.Store.SetManual(m.Fields)

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// move shifts the cursor by delta, keeping it inside the visible window.
func (m *EditorModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Fields)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m EditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Codes"))
	b.WriteString("  ")
	codes := m.Store.Codes()
	pages := sheet.PageCount(len(codes), m.Grid.Columns, m.Grid.Rows)
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · %s · %s",
		plural(len(codes), "code"), plural(pages, "page"), m.Store.Mode())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ new field  ctrl+d delete  ctrl+x clear  ctrl+s save  esc quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Fields))
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		style := listNormalStyle
		if !m.Store.ManualEnabled() {
			style = listDimStyle
		}
		value := m.Fields[i]
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
			if m.Store.ManualEnabled() {
				value += "▏"
			}
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, listDimStyle.Render(fmt.Sprintf("%3d", i+1)), style.Render(value)))
	}

	b.WriteString("\n")
	switch {
	case m.Err != nil:
		b.WriteString(StyleWarning.Render(errors.UserMessage(m.Err)))
	case !m.Store.ManualEnabled():
		b.WriteString(StyleWarning.Render("Imported data is active; press ctrl+x to clear it and type codes"))
	default:
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Fields))))
	}
	return b.String()
}
