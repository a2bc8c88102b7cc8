package tui

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatsModel is a Bubble Tea model that lays a metrics snapshot out as a
// row of stat boxes instead of the inspect view's label/value list.
type StatsModel struct {
	viewType string
	data     any
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Run Metrics"))
	b.WriteString("\n\n")
	b.WriteString(statBoxRow(m.data))

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

// statBoxRow lays every scalar numeric/string field of data out as a
// StatBoxStyle box in a single row, mirroring a typical metrics dashboard.
func statBoxRow(data any) string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Sprintf("%v", data)
	}

	var boxes []string
	collectStatBoxes(v, &boxes)
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func collectStatBoxes(v reflect.Value, boxes *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			collectStatBoxes(fv, boxes)
			continue
		}
		switch fv.Kind() {
		case reflect.Struct, reflect.Slice, reflect.Map:
			continue
		default:
			box := StatLabelStyle.Render(fieldName(field)) + "\n" +
				StatValueStyle.Render(fmt.Sprintf("%v", fv.Interface()))
			*boxes = append(*boxes, StatBoxStyle.Render(box))
		}
	}
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
