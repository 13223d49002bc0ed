// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/markup"
	"github.com/JDLewis4313/genius-edtech/internal/mentor"
	"github.com/JDLewis4313/genius-edtech/internal/transcript"
	"github.com/JDLewis4313/genius-edtech/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxInputLength caps a single message.
	MaxInputLength = 2000

	// headerHeight and footerHeight are the fixed rows around the viewport:
	// header, input (with its top border), stats bar and help line.
	headerHeight = 1
	footerHeight = 4
)

// noFocus means the message box has focus rather than a card action.
const noFocus = -1

// =============================================================================
// OPTIONS
// =============================================================================

// Options configure the chat screen.
type Options struct {
	// Title is shown in the header, usually the service's base URL.
	Title string

	// Markdown renders guide replies through glamour; otherwise they are
	// reduced to plain text.
	Markdown bool

	// Style is the glamour style: auto, dark, light or notty.
	Style string

	// Compact drops bubble borders.
	Compact bool

	Logger *zap.Logger
}

// actionRef addresses one action on one transcript entry.
type actionRef struct {
	entryID string
	index   int
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctrl  *mentor.Controller
	theme *styles.Theme
	// baseTheme is the theme the screen was created with.
	baseTheme *styles.Theme
	keys      KeyMap
	opts      Options
	logger    *zap.Logger

	// input is shared with the controller, which reads and clears it.
	input    *textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	renderer *markup.Renderer

	focus   int
	actions []actionRef

	width    int
	height   int
	ready    bool
	spinning bool
	quitting bool
}

// NewInput creates the message box. Pass it to mentor.New before New so the
// controller and the screen share one buffer.
func NewInput() *textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Ask Mentari anything, or try 'quiz on atoms'"
	ti.Prompt = "› "
	ti.CharLimit = MaxInputLength
	ti.Focus()
	return &ti
}

// New creates the chat screen. input must be the controller's Input.
func New(ctrl *mentor.Controller, input *textinput.Model, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		ctrl:      ctrl,
		theme:     theme,
		baseTheme: theme,
		keys:      DefaultKeyMap(),
		opts:      opts,
		logger:    opts.Logger.Named("tui"),
		input:     input,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		help:      help.New(),
		focus:     noFocus,
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Controller returns the session controller, e.g. to archive its
// transcript after the program exits.
func (m Model) Controller() *mentor.Controller { return m.ctrl }

// Transcript is shorthand for Controller().Transcript().
func (m Model) Transcript() *transcript.Transcript { return m.ctrl.Transcript() }

// Focused returns the focused action, if any.
func (m Model) Focused() (entryID string, index int, ok bool) {
	if m.focus < 0 || m.focus >= len(m.actions) {
		return "", 0, false
	}
	ref := m.actions[m.focus]
	return ref.entryID, ref.index, true
}

// =============================================================================
// FOCUS
// =============================================================================

// refreshActions rebuilds the list of focusable actions after the
// transcript changes, keeping focus on the same action when it survives.
func (m *Model) refreshActions() {
	var current actionRef
	hadFocus := m.focus >= 0 && m.focus < len(m.actions)
	if hadFocus {
		current = m.actions[m.focus]
	}

	m.actions = nil
	for _, id := range m.ctrl.Transcript().ActionIDs() {
		entry, ok := m.ctrl.Transcript().Get(id)
		if !ok {
			continue
		}
		for i := range entry.Actions {
			m.actions = append(m.actions, actionRef{entryID: id, index: i})
		}
	}

	m.focus = noFocus
	if hadFocus {
		for i, ref := range m.actions {
			if ref == current {
				m.focus = i
				break
			}
		}
	}
}

// moveFocus cycles through the newest card's actions first, then older
// ones, then back to the input.
func (m *Model) moveFocus(delta int) {
	order := tabOrder(m.actions)
	n := len(order)
	if n == 0 {
		m.setFocus(noFocus)
		return
	}

	// Positions 0..n-1 index order; n is the input.
	pos := n
	for i, idx := range order {
		if idx == m.focus {
			pos = i
			break
		}
	}
	pos = ((pos+delta)%(n+1) + n + 1) % (n + 1)

	if pos == n {
		m.setFocus(noFocus)
		return
	}
	m.setFocus(order[pos])
}

// tabOrder lists indexes into actions with the newest entry first, keeping
// each entry's own actions in their natural order.
func tabOrder(actions []actionRef) []int {
	order := make([]int, 0, len(actions))
	end := len(actions)
	for end > 0 {
		start := end - 1
		for start > 0 && actions[start-1].entryID == actions[end-1].entryID {
			start--
		}
		for i := start; i < end; i++ {
			order = append(order, i)
		}
		end = start
	}
	return order
}

func (m *Model) setFocus(i int) {
	m.focus = i
	if i == noFocus {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}
