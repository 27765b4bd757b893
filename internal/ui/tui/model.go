// Package tui is the interactive search view: a query line that re-runs
// the search on every keystroke above a scrollable, highlighted result list.
package tui

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/ffd/internal/event"
	"github.com/bamsammich/ffd/internal/filter"
	"github.com/bamsammich/ffd/internal/index"
	"github.com/bamsammich/ffd/internal/ui"
)

// DefaultMaxResults bounds the result list when Config.MaxResults is unset.
const DefaultMaxResults = 1000

// Searcher syncs and searches the indexed volumes.
type Searcher interface {
	Sync(ctx context.Context) error
	Search(query string) iter.Seq[index.Match]
}

// Config configures the interactive view.
type Config struct {
	Searcher   Searcher
	Filter     *filter.Chain // optional
	MaxResults int
	Theme      ui.Theme
	Events     <-chan event.Event // optional; shown on the status line
}

// Bubble Tea messages.
type resultsMsg struct {
	query     string
	matches   []index.Match
	truncated bool
	elapsed   time.Duration
	err       error // sync failure; matches are still valid
}
type engineEventMsg event.Event
type channelDoneMsg struct{}

// readNextEvent returns a tea.Cmd that blocks on the event channel.
func readNextEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return channelDoneMsg{}
		}
		return engineEventMsg(ev)
	}
}

// searchCmd syncs, then collects up to limit filtered matches sorted by path.
func searchCmd(ctx context.Context, s Searcher, chain *filter.Chain, limit int, query string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		msg := resultsMsg{query: query}
		if strings.TrimSpace(query) == "" {
			return msg
		}
		msg.err = s.Sync(ctx)
		for m := range s.Search(query) {
			if !chain.Match(m.Path, m.Dir) {
				continue
			}
			if len(msg.matches) == limit {
				msg.truncated = true
				break
			}
			msg.matches = append(msg.matches, m)
		}
		slices.SortFunc(msg.matches, func(a, b index.Match) int {
			return strings.Compare(a.Path, b.Path)
		})
		msg.elapsed = time.Since(start)
		return msg
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	cfg    Config
	keys   KeyMap
	styles styles
	input  textinput.Model

	results   []index.Match
	truncated bool
	elapsed   time.Duration
	syncErr   error
	cursor    int
	offset    int // first visible result

	width    int
	height   int
	status   string // last engine event
	selected string
	quitting bool
}

// NewModel creates a new interactive search model.
func NewModel(ctx context.Context, cfg Config) Model {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	st := newStyles(cfg.Theme)

	ti := textinput.New()
	ti.Prompt = ui.Prompt
	ti.PromptStyle = st.prompt
	ti.Placeholder = "type to search file names"
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		ctx:    ctx,
		cfg:    cfg,
		keys:   DefaultKeyMap,
		styles: st,
		input:  ti,
		width:  80,
		height: 24,
	}
}

// Selected returns the path chosen with Accept, or "" if the user quit.
func (m Model) Selected() string { return m.selected }

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.cfg.Events != nil {
		cmds = append(cmds, readNextEvent(m.cfg.Events))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-len(ui.Prompt)-1)
		m.clampScroll()
		return m, nil

	case resultsMsg:
		if msg.query != m.input.Value() {
			return m, nil // stale
		}
		m.results = msg.matches
		m.truncated = msg.truncated
		m.elapsed = msg.elapsed
		m.syncErr = msg.err
		m.cursor, m.offset = 0, 0
		return m, nil

	case engineEventMsg:
		m.status = describe(event.Event(msg))
		return m, readNextEvent(m.cfg.Events)

	case channelDoneMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Accept):
		if len(m.results) == 0 {
			return m, nil
		}
		m.selected = m.results[m.cursor].Path
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampScroll()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		m.clampScroll()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		m.results, m.truncated, m.cursor, m.offset = nil, false, 0, 0
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != before {
		if strings.TrimSpace(q) == "" {
			m.results, m.truncated, m.cursor, m.offset = nil, false, 0, 0
			return m, cmd
		}
		return m, tea.Batch(cmd, searchCmd(m.ctx, m.cfg.Searcher, m.cfg.Filter, m.cfg.MaxResults, q))
	}
	return m, cmd
}

// listHeight is the number of result rows that fit under the prompt,
// status and help lines.
func (m Model) listHeight() int {
	return max(1, m.height-3)
}

func (m *Model) clampScroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')

	end := min(len(m.results), m.offset+m.listHeight())
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.results[i], i == m.cursor))
		b.WriteByte('\n')
	}
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) renderRow(r index.Match, selected bool) string {
	before, matched, after := r.Split()
	path := m.styles.path
	marker := "  "
	if selected {
		path = m.styles.selected
		marker = m.styles.marker.Render("> ")
	}
	return marker + path.Render(before) + m.styles.match.Render(matched) + path.Render(after)
}

func (m Model) statusLine() string {
	if m.syncErr != nil {
		return m.styles.err.Render("sync: " + m.syncErr.Error())
	}
	var parts []string
	if m.input.Value() != "" {
		count := ui.Plural(int64(len(m.results)), "match", "matches")
		if m.truncated {
			count = "first " + count
		}
		parts = append(parts, fmt.Sprintf("%s in %s", count, ui.FormatDuration(m.elapsed)))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return m.styles.status.Render(strings.Join(parts, "  ·  "))
}

func (m Model) helpLine() string {
	var parts []string
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, m.styles.helpKey.Render(h.Key)+" "+m.styles.helpDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// describe turns an engine event into a short status message.
func describe(ev event.Event) string {
	switch ev.Type {
	case event.ScanStarted:
		return "indexing " + ev.Volume
	case event.ScanComplete:
		return fmt.Sprintf("%s indexed, %s", ev.Volume, ui.Plural(ev.Total, "entry", "entries"))
	case event.VolumeRebuilt:
		return ev.Volume + " journal reset, re-indexed"
	case event.VolumeFailed:
		return fmt.Sprintf("%s failed: %v", ev.Volume, ev.Error)
	case event.SyncComplete:
		if ev.Total == 0 {
			return ""
		}
		return fmt.Sprintf("%s: %s applied", ev.Volume, ui.Plural(ev.Total, "change", "changes"))
	case event.EntryCreated:
		return "+ " + ev.Path
	case event.EntryDeleted:
		return "- " + ev.Path
	case event.EntryRenamed:
		return "~ " + ev.Path
	}
	return ""
}
