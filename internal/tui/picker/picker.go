// Package picker provides the interactive assignment picker: a bubbletea
// view over the modal state machine that lets an admin tick the tutors of a
// student (or the students of a tutor) and save the difference.
package picker

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dhanwis/tutoradmin/internal/assign"
	"github.com/dhanwis/tutoradmin/internal/directory"
	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/modal"
	"github.com/dhanwis/tutoradmin/internal/model"
	"github.com/dhanwis/tutoradmin/internal/tui/styles"
	"github.com/dhanwis/tutoradmin/internal/util"
)

// Saver applies a selection. *assign.Reconciler satisfies it.
type Saver interface {
	Save(ctx context.Context, dir assign.Direction, anchorID model.ID, oldIDs, newIDs assign.IDSet) (assign.Result, error)
}

// AnchorSource is implemented by savers that can return an anchor as
// re-fetched after a save. The picker uses it to edit against the server's
// state once part of a save has landed.
type AnchorSource interface {
	Anchor(kind model.Kind, id model.ID) (model.Entity, bool)
}

// Outcome is what the picker reports once it exits.
type Outcome struct {
	// Saved is true when every write of the last save was applied.
	Saved bool
	// Result is the last save attempt, including the writes a failed
	// attempt managed to apply.
	Result assign.Result
	// Err is the last save failure, if the picker was left after one.
	Err error
}

// saveDoneMsg carries the result of an asynchronous save back to Update.
type saveDoneMsg struct {
	result assign.Result
	err    error
	// anchor is the re-fetched anchor after a partially applied save.
	anchor *model.Entity
}

// minListRows is the number of rows shown when the terminal size is unknown.
const minListRows = 5

// Model is the Bubbletea model for the assignment picker
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	saver      Saver
	state      modal.State
	candidates []model.Entity
	visible    []model.Entity

	cursor       int
	scrollOffset int
	search       textinput.Model
	searching    bool

	width    int
	height   int
	errorMsg string
	result   assign.Result
	quitting bool
	// interrupted is set by ctrl+c during a save; the picker exits once the
	// save reports back.
	interrupted bool
}

// New creates a picker for anchor. candidates are the records that may be
// linked to it, normally the approved tutors or every student.
func New(ctx context.Context, saver Saver, dir assign.Direction, anchor model.Entity, candidates []model.Entity) Model {
	ti := textinput.New()
	ti.Placeholder = "name, email or qualification"
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.Width = 40

	ctx, cancel := context.WithCancel(ctx)
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		saver:      saver,
		state:      modal.Reduce(modal.State{}, modal.Open{Anchor: anchor, Direction: dir}),
		candidates: candidates,
		visible:    candidates,
		search:     ti,
	}
}

// State returns the current modal state.
func (m Model) State() modal.State {
	return m.state
}

// Outcome reports how the picker ended.
func (m Model) Outcome() Outcome {
	err := m.state.Err
	if m.state.Phase == modal.Saving {
		err = fmt.Errorf("left before the save finished, changes may be partially applied: %w", errors.ErrCanceled)
	}
	return Outcome{
		Saved:  m.state.RefreshRequested,
		Result: m.result,
		Err:    err,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case saveDoneMsg:
		return m.handleSaveDone(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.state.Phase == modal.Saving && !m.interrupted {
				m.interrupted = true
				m.cancel()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
		if m.searching {
			return m.handleSearchKeypress(msg)
		}
		switch m.state.Phase {
		case modal.Viewing:
			return m.handleViewingKeypress(msg)
		case modal.Editing:
			return m.handleEditingKeypress(msg)
		case modal.Saving:
			return m.handleSavingKeypress(msg)
		}
	}

	return m, nil
}

func (m Model) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	m.result = msg.result
	if msg.err != nil {
		m.state = modal.Reduce(m.state, modal.SaveFailed{Err: msg.err, Anchor: msg.anchor})
		m.errorMsg = errors.UserMessage("update assignments", msg.err)
		if m.interrupted {
			m.state = modal.Reduce(m.state, modal.Cancel{})
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m.state = modal.Reduce(m.state, modal.SaveSucceeded{})
	m.errorMsg = ""
	m.quitting = true
	return m, tea.Quit
}

func (m Model) handleViewingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "e", "enter":
		m.state = modal.Reduce(m.state, modal.BeginEdit{})
	case "q", "esc":
		m.state = modal.Reduce(m.state, modal.Close{})
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleEditingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()

	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		m.ensureCursorVisible()

	case " ", "x":
		if c, ok := m.current(); ok {
			m.state = modal.Reduce(m.state, modal.Toggle{ID: c.ID})
		}

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "s", "enter":
		m.state = modal.Reduce(m.state, modal.Save{})
		m.errorMsg = ""
		return m, m.saveCmd(m.state)

	case "esc", "q":
		m.state = modal.Reduce(m.state, modal.Cancel{})
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// handleSavingKeypress routes keys that would restart or abandon the save
// through the reducer, which answers with the busy notice.
func (m Model) handleSavingKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s", "enter":
		m.state = modal.Reduce(m.state, modal.Save{})
	case "esc", "q":
		m.state = modal.Reduce(m.state, modal.Cancel{})
	}
	return m, nil
}

func (m Model) handleSearchKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) applyFilter() {
	m.visible = directory.Filter(m.candidates, m.search.Value())
	m.cursor = 0
	m.scrollOffset = 0
}

func (m Model) current() (model.Entity, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Entity{}, false
	}
	return m.visible[m.cursor], true
}

func (m Model) saveCmd(s modal.State) tea.Cmd {
	if s.Phase != modal.Saving {
		return nil
	}
	ctx, saver := m.ctx, m.saver
	return func() tea.Msg {
		res, err := saver.Save(ctx, s.Direction, s.Anchor.ID, s.Original(), s.Selected())
		done := saveDoneMsg{result: res, err: err}
		if err == nil || len(res.Applied) == 0 || res.RefreshErr != nil {
			return done
		}
		if src, ok := saver.(AnchorSource); ok {
			if anchor, found := src.Anchor(s.Direction.Anchor(), s.Anchor.ID); found {
				done.anchor = &anchor
			}
		}
		return done
	}
}

// listRows returns how many candidate rows fit on screen.
func (m Model) listRows() int {
	// header, search bar, status lines and help bar
	const chrome = 12
	if m.height-chrome < minListRows {
		return minListRows
	}
	return m.height - chrome
}

func (m *Model) ensureCursorVisible() {
	rows := m.listRows()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+rows {
		m.scrollOffset = m.cursor - rows + 1
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	anchor := m.state.Anchor
	counterpart := m.state.Direction.Counterpart()
	title := fmt.Sprintf("Assign %s to %s", counterpart.Plural(), util.OrPlaceholder(anchor.FullName))
	if m.width > 4 {
		b.WriteString(styles.Header.Width(m.width - 4).Render(title))
	} else {
		b.WriteString(styles.Header.Render(title))
	}
	b.WriteString("\n")

	switch m.state.Phase {
	case modal.Viewing:
		b.WriteString(m.renderAssigned())
	case modal.Editing, modal.Saving:
		b.WriteString(m.renderEditor())
	}

	if m.state.Phase == modal.Saving {
		b.WriteString("\n")
		if m.interrupted {
			b.WriteString(styles.Muted.Render("Canceling save..."))
		} else {
			b.WriteString(styles.Muted.Render("Saving..."))
		}
	}
	if m.state.Notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.WarningMsg.Render(m.state.Notice))
	}
	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorMsg.Render(m.errorMsg))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderAssigned() string {
	counterpart := m.state.Direction.Counterpart()
	names := m.state.Anchor.AssignedNames(counterpart)
	if len(names) == 0 {
		return styles.Muted.Render(fmt.Sprintf("No %s assigned.", counterpart.Plural())) + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("Assigned %s:", counterpart.Plural())))
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString("  " + styles.Text.Render(name) + "\n")
	}
	return b.String()
}

func (m Model) renderEditor() string {
	var b strings.Builder

	if m.searching || m.search.Value() != "" {
		b.WriteString(styles.SearchBar.Render(m.search.View()))
		b.WriteString("\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(styles.Muted.Render("No matches."))
		b.WriteString("\n")
	}

	end := min(m.scrollOffset+m.listRows(), len(m.visible))
	nameWidth := 30
	if m.width > 60 {
		nameWidth = m.width / 2
	}
	for i := m.scrollOffset; i < end; i++ {
		c := m.visible[i]
		name := util.TruncateANSI(util.OrPlaceholder(c.FullName), nameWidth)
		line := fmt.Sprintf("%s %-*s", styles.CheckMark(m.state.IsSelected(c.ID)), nameWidth, name)
		if c.Qualification != "" {
			line += " " + styles.Muted.Render(c.Qualification)
		}
		if i == m.cursor {
			b.WriteString(styles.Secondary.Render(">") + styles.ItemSelected.Render(line))
		} else {
			b.WriteString(" " + styles.Item.Render(line))
		}
		b.WriteString("\n")
	}

	plan := m.state.Plan()
	summary := fmt.Sprintf("%d selected", len(m.state.Selection))
	if !plan.Empty() {
		summary += fmt.Sprintf("  (+%d -%d)", len(plan.ToAssign), len(plan.ToUnassign))
	}
	b.WriteString(styles.Muted.Render(summary))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderHelp() string {
	helpStyle := styles.HelpBar
	keyStyle := styles.HelpKey

	switch {
	case m.searching:
		return helpStyle.Render(
			keyStyle.Render("enter") + " apply  " +
				keyStyle.Render("esc") + " clear",
		)
	case m.state.Phase == modal.Viewing:
		return helpStyle.Render(
			keyStyle.Render("e") + " edit  " +
				keyStyle.Render("q") + " close",
		)
	case m.state.Phase == modal.Saving && m.interrupted:
		return helpStyle.Render(keyStyle.Render("ctrl+c") + " quit now")
	case m.state.Phase == modal.Saving:
		return helpStyle.Render(keyStyle.Render("ctrl+c") + " abort")
	default:
		return helpStyle.Render(
			keyStyle.Render("j/k") + " navigate  " +
				keyStyle.Render("space") + " toggle  " +
				keyStyle.Render("/") + " search  " +
				keyStyle.Render("s") + " save  " +
				keyStyle.Render("esc") + " cancel",
		)
	}
}

// Run starts the interactive picker and blocks until it exits. Canceling ctx
// aborts any save still in flight. ctrl+c during a save aborts it and waits
// for it to report which writes landed; a second ctrl+c quits at once.
func Run(ctx context.Context, saver Saver, dir assign.Direction, anchor model.Entity, candidates []model.Entity) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, saver, dir, anchor, candidates), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return Outcome{}, err
	}
	return final.(Model).Outcome(), nil
}
