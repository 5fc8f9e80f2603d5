package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	CycleTab  key.Binding
	CycleBack key.Binding
	Debug     key.Binding
	Submit    key.Binding
	Blur      key.Binding
	Focus     key.Binding
	Up        key.Binding
	Down      key.Binding
	More      key.Binding
	Order     key.Binding
	ByID      key.Binding
	Share     key.Binding
	Type      key.Binding
	Cancel    key.Binding
	Reset     key.Binding
	NextField key.Binding
	PrevField key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	NextTab:   key.NewBinding(key.WithKeys("ctrl+n", "ctrl+right"), key.WithHelp("ctrl+n", "next tab")),
	PrevTab:   key.NewBinding(key.WithKeys("ctrl+p", "ctrl+left"), key.WithHelp("ctrl+p", "prev tab")),
	CycleTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	CycleBack: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Debug:     key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "debug")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Blur:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave input")),
	Focus:     key.NewBinding(key.WithKeys("/", "i"), key.WithHelp("/", "edit")),
	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
	More:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
	Order:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),
	ByID:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter by ID")),
	Share:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "share link")),
	Type:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "ranking type")),
	Cancel:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "stop answer")),
	Reset:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "new chat")),
	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
}

// tabNumber maps the digit keys to tabs when no input has focus.
func tabNumber(s string) (Tab, bool) {
	switch s {
	case "1":
		return TabChat, true
	case "2":
		return TabSearch, true
	case "3":
		return TabOekaki, true
	case "4":
		return TabRanking, true
	}
	return 0, false
}
