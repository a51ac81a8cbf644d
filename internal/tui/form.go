package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formKind says what a submitted form does.
type formKind int

const (
	formLogin formKind = iota
	formAddUser
	formEditUser
	formAddTicket
	formEditTicket
)

type formField struct {
	name  string
	label string
	input textinput.Model
}

// form is a vertical stack of labelled text inputs with one focused field.
type form struct {
	kind     formKind
	title    string
	targetID int64
	fields   []formField
	focus    int
}

type fieldSpec struct {
	name   string
	label  string
	value  string
	secret bool
}

func newForm(kind formKind, title string, targetID int64, specs ...fieldSpec) *form {
	f := &form{kind: kind, title: title, targetID: targetID}
	for _, spec := range specs {
		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = 255
		input.SetValue(spec.value)
		if spec.secret {
			input.EchoMode = textinput.EchoPassword
			input.EchoCharacter = '•'
		}
		f.fields = append(f.fields, formField{name: spec.name, label: spec.label, input: input})
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(index int) {
	if len(f.fields) == 0 {
		return
	}
	index = (index + len(f.fields)) % len(f.fields)
	for i := range f.fields {
		if i == index {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	f.focus = index
}

// update moves focus on tab/shift+tab and forwards every other key to the
// focused input.
func (f *form) update(keys KeyMap, message tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(message, keys.NextField):
		f.setFocus(f.focus + 1)
		return nil
	case key.Matches(message, keys.PrevField):
		f.setFocus(f.focus - 1)
		return nil
	}
	var command tea.Cmd
	f.fields[f.focus].input, command = f.fields[f.focus].input.Update(message)
	return command
}

func (f *form) value(name string) string {
	return strings.TrimSpace(f.raw(name))
}

// raw returns the field as typed; secrets are not trimmed.
func (f *form) raw(name string) string {
	for _, field := range f.fields {
		if field.name == name {
			return field.input.Value()
		}
	}
	return ""
}

func (f *form) set(name, value string) {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].input.SetValue(value)
		}
	}
}

func (f *form) view(theme Theme) string {
	var b strings.Builder
	b.WriteString(theme.title().Render(f.title))
	b.WriteString("\n\n")
	for i, field := range f.fields {
		label := field.label + ":"
		if i == f.focus {
			label = theme.selected().Render(label)
		} else {
			label = theme.faint().Render(label)
		}
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(field.input.View())
		b.WriteString("\n")
	}
	return b.String()
}
