package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/boardview/internal/model"
)

type formField struct {
	name  string
	label string
	input textinput.Model
}

// filterForm is the search/ranking filter form. focus is -1 when no field
// has the cursor.
type filterForm struct {
	fields []formField
	focus  int
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 30
	return ti
}

func newFilterForm(extra ...formField) filterForm {
	fields := []formField{
		{name: "id", label: "ID", input: newInput("abcd1234", 32)},
		{name: "main_text", label: "本文", input: newInput("キーワード", 200)},
		{name: "name_and_trip", label: "名前", input: newInput("名無しさん", 64)},
		{name: "since", label: "開始日", input: newInput("YYYY-MM-DD", 10)},
		{name: "until", label: "終了日", input: newInput("YYYY-MM-DD", 10)},
	}
	return filterForm{fields: append(fields, extra...), focus: -1}
}

// Focused reports whether a field has the cursor.
func (f filterForm) Focused() bool {
	return f.focus >= 0
}

// Focus puts the cursor on the first field.
func (f *filterForm) Focus() tea.Cmd {
	return f.focusAt(0)
}

func (f *filterForm) focusAt(i int) tea.Cmd {
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = i
	return f.fields[i].input.Focus()
}

// Blur removes the cursor from every field.
func (f *filterForm) Blur() {
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = -1
}

// Update moves between fields or hands msg to the focused one, which
// includes its cursor blinks.
func (f filterForm) Update(msg tea.Msg) (filterForm, tea.Cmd) {
	if !f.Focused() {
		return f, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.NextField):
			cmd := f.focusAt((f.focus + 1) % len(f.fields))
			return f, cmd
		case key.Matches(k, keys.PrevField):
			cmd := f.focusAt((f.focus - 1 + len(f.fields)) % len(f.fields))
			return f, cmd
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

func (f filterForm) value(name string) string {
	for _, fl := range f.fields {
		if fl.name == name {
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

func (f *filterForm) set(name, v string) {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].input.SetValue(v)
		}
	}
}

// Filters reads the form. Ascending is owned by the caller.
func (f filterForm) Filters(ascending bool) model.Filters {
	return model.Filters{
		ID:          f.value("id"),
		MainText:    f.value("main_text"),
		NameAndTrip: f.value("name_and_trip"),
		Ascending:   ascending,
		Since:       f.value("since"),
		Until:       f.value("until"),
	}
}

// SetFilters fills the form from flt.
func (f *filterForm) SetFilters(flt model.Filters) {
	f.set("id", flt.ID)
	f.set("main_text", flt.MainText)
	f.set("name_and_trip", flt.NameAndTrip)
	f.set("since", flt.Since)
	f.set("until", flt.Until)
}

// View renders the fields two to a line.
func (f filterForm) View() string {
	var lines []string
	var row []string
	for i, fl := range f.fields {
		label := FormLabel.Render(fl.label)
		if i == f.focus {
			label = FormLabelActive.Render(fl.label)
		}
		row = append(row, label+fl.input.View())
		if len(row) == 2 {
			lines = append(lines, strings.Join(row, "  "))
			row = nil
		}
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, "  "))
	}
	return strings.Join(lines, "\n")
}
