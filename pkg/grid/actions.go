package grid

import (
	"errors"
	"fmt"
)

// ErrActionDisabled is returned when a disabled action is selected.
var ErrActionDisabled = errors.New("action disabled for this row")

// inlineActionLimit is the most actions rendered inline; more collapse into
// an overflow menu.
const inlineActionLimit = 2

// Action is a per-row action descriptor.
type Action struct {
	Label      string
	Icon       string
	OnClick    func(row Record)
	IsDisabled func(row Record) bool
	ClassName  string
}

// ActionLayout says how a row's actions are presented.
type ActionLayout int

const (
	LayoutNone ActionLayout = iota
	LayoutInline
	LayoutOverflow
)

func (l ActionLayout) String() string {
	switch l {
	case LayoutInline:
		return "inline"
	case LayoutOverflow:
		return "overflow"
	default:
		return "none"
	}
}

// ActionControl is an action as rendered for one row.
type ActionControl struct {
	Index     int
	Label     string
	Icon      string
	ClassName string
	Disabled  bool
}

// Dispatcher renders row actions and forwards selections. At most one
// row's overflow menu is open at a time.
type Dispatcher struct {
	actions    []Action
	onRowClick func(row Record)
	openRow    *int
}

// NewDispatcher creates a Dispatcher for the given actions.
func NewDispatcher(actions []Action, onRowClick func(row Record)) *Dispatcher {
	return &Dispatcher{actions: actions, onRowClick: onRowClick}
}

// Actions returns the configured descriptors.
func (d *Dispatcher) Actions() []Action {
	return d.actions
}

// Layout returns inline for up to two actions and overflow beyond that.
func (d *Dispatcher) Layout() ActionLayout {
	switch n := len(d.actions); {
	case n == 0:
		return LayoutNone
	case n <= inlineActionLimit:
		return LayoutInline
	default:
		return LayoutOverflow
	}
}

// Controls evaluates every action for row.
func (d *Dispatcher) Controls(row Record) []ActionControl {
	out := make([]ActionControl, len(d.actions))
	for i, a := range d.actions {
		out[i] = ActionControl{
			Index:     i,
			Label:     a.Label,
			Icon:      a.Icon,
			ClassName: a.ClassName,
			Disabled:  a.IsDisabled != nil && a.IsDisabled(row),
		}
	}
	return out
}

// ToggleMenu opens the overflow menu of rowIndex, or closes it when it is
// already open. Opening one row's menu closes any other.
func (d *Dispatcher) ToggleMenu(rowIndex int) {
	if d.openRow != nil && *d.openRow == rowIndex {
		d.openRow = nil
		return
	}
	d.openRow = &rowIndex
}

// OpenMenu returns the row whose menu is open.
func (d *Dispatcher) OpenMenu() (int, bool) {
	if d.openRow == nil {
		return 0, false
	}
	return *d.openRow, true
}

// MenuOpen reports whether rowIndex shows its overflow menu.
func (d *Dispatcher) MenuOpen(rowIndex int) bool {
	return d.openRow != nil && *d.openRow == rowIndex
}

// CloseMenu closes any open menu.
func (d *Dispatcher) CloseMenu() {
	d.openRow = nil
}

// ClickOutside handles a click outside the menu region.
func (d *Dispatcher) ClickOutside() {
	d.CloseMenu()
}

// Select invokes action index for row and closes the menu.
func (d *Dispatcher) Select(index int, row Record) error {
	if index < 0 || index >= len(d.actions) {
		return fmt.Errorf("action %d: out of range", index)
	}
	a := d.actions[index]
	if a.IsDisabled != nil && a.IsDisabled(row) {
		return fmt.Errorf("%s: %w", a.Label, ErrActionDisabled)
	}
	d.CloseMenu()
	if a.OnClick != nil {
		a.OnClick(row)
	}
	return nil
}

// RowClick forwards a click on the row body to the whole-row callback.
func (d *Dispatcher) RowClick(row Record) {
	if d.onRowClick != nil {
		d.onRowClick(row)
	}
}
