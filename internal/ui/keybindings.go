package ui

import "slices"

// Action is what a key press does in the browser.
type Action string

const (
	ActionNone        Action = ""
	ActionDown        Action = "down"
	ActionUp          Action = "up"
	ActionColLeft     Action = "col_left"
	ActionColRight    Action = "col_right"
	ActionNextPage    Action = "next_page"
	ActionPrevPage    Action = "prev_page"
	ActionFirstPage   Action = "first_page"
	ActionLastPage    Action = "last_page"
	ActionSort        Action = "sort"
	ActionSearch      Action = "search"
	ActionClear       Action = "clear"
	ActionPerPageUp   Action = "per_page_up"
	ActionPerPageDown Action = "per_page_down"
	ActionOpen        Action = "open"
	ActionExport      Action = "export"
	ActionHelp        Action = "help"
	ActionBack        Action = "back"
	ActionQuit        Action = "quit"
)

// DefaultKeyBindings maps key strings to actions. Digits 1-9 are not listed;
// they pick the row action with that number.
var DefaultKeyBindings = map[string]Action{
	"j":      ActionDown,
	"down":   ActionDown,
	"k":      ActionUp,
	"up":     ActionUp,
	"h":      ActionColLeft,
	"left":   ActionColLeft,
	"l":      ActionColRight,
	"right":  ActionColRight,
	"n":      ActionNextPage,
	"pgdown": ActionNextPage,
	"p":      ActionPrevPage,
	"pgup":   ActionPrevPage,
	"g":      ActionFirstPage,
	"home":   ActionFirstPage,
	"G":      ActionLastPage,
	"end":    ActionLastPage,
	"s":      ActionSort,
	"/":      ActionSearch,
	"c":      ActionClear,
	"+":      ActionPerPageUp,
	"-":      ActionPerPageDown,
	"enter":  ActionOpen,
	"x":      ActionExport,
	"?":      ActionHelp,
	"esc":    ActionBack,
	"q":      ActionQuit,
	"ctrl+c": ActionQuit,
}

// actionHelp orders the help screen.
var actionHelp = []struct {
	action Action
	text   string
}{
	{ActionDown, "next row"},
	{ActionUp, "previous row"},
	{ActionColLeft, "select column to the left"},
	{ActionColRight, "select column to the right"},
	{ActionSort, "sort by the selected column (again to reverse)"},
	{ActionNextPage, "next page"},
	{ActionPrevPage, "previous page"},
	{ActionFirstPage, "first page"},
	{ActionLastPage, "last page"},
	{ActionPerPageUp, "more rows per page"},
	{ActionPerPageDown, "fewer rows per page"},
	{ActionSearch, "search"},
	{ActionClear, "clear search and filters"},
	{ActionOpen, "row actions (view the record when there are none)"},
	{ActionExport, "export to a spreadsheet"},
	{ActionBack, "close menu or view"},
	{ActionHelp, "toggle help"},
	{ActionQuit, "quit"},
}

// KeysFor lists the keys bound to action, sorted.
func KeysFor(bindings map[string]Action, action Action) []string {
	var keys []string
	for k, a := range bindings {
		if a == action {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
