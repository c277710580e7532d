package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/thinkt-live/internal/i18n"
	"github.com/wethinkt/thinkt-live/internal/stream"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/view"
)

const sessionColumnWidth = 30

// Engine is the part of the live controller the UI drives. Requests are
// posted to the engine goroutine and answered with notifications.
type Engine interface {
	RequestActivate(key string)
	RequestResync(scope string)
}

// LiveModel is the live viewer: a session column and a viewport showing
// the rows of the active session.
type LiveModel struct {
	engine   Engine
	rows     *RowSet
	renderer *Renderer
	styles   *Styles
	keys     liveKeyMap
	filters  KindFilterSet

	width, height int
	viewport      viewport.Model
	spinner       spinner.Model
	ready         bool

	sessions []transcript.SessionSummary
	active   string
	// shownVersion is the rows version last put in the viewport.
	shownVersion uint64
	shownKey     string

	connected  bool
	everSeen   bool
	statusErr  error
	resyncing  bool
	resyncErr  error
	followTail bool
	flashTicks int
}

// NewLiveModel creates the viewer. initial is the session shown first.
func NewLiveModel(engine Engine, rows *RowSet, styles *Styles, renderer *Renderer, initial string) LiveModel {
	if initial == "" {
		initial = transcript.AllSessions
	}
	s := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(styles.Title),
	)
	return LiveModel{
		engine:     engine,
		rows:       rows,
		renderer:   renderer,
		styles:     styles,
		keys:       defaultLiveKeyMap(),
		filters:    NewKindFilterSet(),
		spinner:    s,
		active:     initial,
		followTail: true,
		resyncing:  true,
	}
}

func (m LiveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Active returns the session on screen.
func (m LiveModel) Active() string { return m.active }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := max(20, msg.Width-sessionColumnWidth-4)
		contentHeight := max(3, msg.Height-5)
		if !m.ready {
			m.viewport = viewport.New()
			m.ready = true
		}
		m.viewport.SetWidth(contentWidth)
		m.viewport.SetHeight(contentHeight)
		m.refresh(true)
		return m, nil

	case statusMsg:
		switch msg.status {
		case stream.StatusConnected:
			m.connected = true
			m.statusErr = nil
		case stream.StatusDisconnected:
			m.connected = false
			m.statusErr = msg.err
		}
		m.everSeen = true
		return m, nil

	case activatedMsg:
		m.active = msg.key
		m.resyncing = msg.resyncing
		m.resyncErr = nil
		m.restoreScroll()
		return m, nil

	case resyncMsg:
		if msg.scope == m.active {
			m.resyncing = false
			m.resyncErr = msg.err
			m.refresh(true)
		}
		return m, nil

	case directoryMsg:
		m.sessions = msg.sessions
		return m, nil

	case flushMsg:
		if m.refresh(false) {
			m.flashTicks = 4
		}
		return m, nil

	case spinner.TickMsg:
		if m.flashTicks > 0 {
			m.flashTicks--
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextSession):
			return m, m.activate(m.neighbor(1))
		case key.Matches(msg, m.keys.PrevSession):
			return m, m.activate(m.neighbor(-1))
		case key.Matches(msg, m.keys.AllSessions):
			return m, m.activate(transcript.AllSessions)
		case key.Matches(msg, m.keys.Resync):
			scope, engine := m.active, m.engine
			m.resyncing = true
			return m, func() tea.Msg {
				engine.RequestResync(scope)
				return nil
			}
		case key.Matches(msg, m.keys.Bottom):
			m.followTail = true
			if m.ready {
				m.viewport.GotoBottom()
			}
			m.saveScroll()
			return m, nil
		case key.Matches(msg, m.keys.ToggleUser):
			m.filters.User = !m.filters.User
			m.refresh(true)
			return m, nil
		case key.Matches(msg, m.keys.ToggleAssistant):
			m.filters.Assistant = !m.filters.Assistant
			m.refresh(true)
			return m, nil
		case key.Matches(msg, m.keys.ToggleTools):
			m.filters.Tools = !m.filters.Tools
			m.refresh(true)
			return m, nil
		case key.Matches(msg, m.keys.ToggleThinking):
			m.filters.Thinking = !m.filters.Thinking
			m.refresh(true)
			return m, nil
		case key.Matches(msg, m.keys.ToggleOther):
			m.filters.Other = !m.filters.Other
			m.refresh(true)
			return m, nil
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.followTail = m.viewport.AtBottom()
		m.saveScroll()
		return m, cmd
	}
	return m, nil
}

// activate asks the engine to switch to key. The switch shows once the
// engine confirms it.
func (m *LiveModel) activate(key string) tea.Cmd {
	if key == m.active {
		return nil
	}
	m.saveScroll()
	engine := m.engine
	return func() tea.Msg {
		engine.RequestActivate(key)
		return nil
	}
}

// sessionKeys lists the aggregate view followed by the directory.
func (m LiveModel) sessionKeys() []string {
	keys := make([]string, 0, len(m.sessions)+1)
	keys = append(keys, transcript.AllSessions)
	for _, s := range m.sessions {
		keys = append(keys, s.Key)
	}
	return keys
}

func (m LiveModel) neighbor(delta int) string {
	keys := m.sessionKeys()
	i := 0
	for j, k := range keys {
		if k == m.active {
			i = j
			break
		}
	}
	return keys[(i+delta+len(keys))%len(keys)]
}

// refresh re-renders the active rows into the viewport. Unless forced it
// skips rows that have not changed. It reports whether content changed.
func (m *LiveModel) refresh(force bool) bool {
	if !m.ready {
		return false
	}
	rows, ok := m.rows.Get(m.active)
	if !ok {
		m.viewport.SetContent(m.styles.Muted.Italic(true).Render(i18n.T("tui.live.waiting", "Waiting for events...")))
		return false
	}
	version := rows.Version()
	if !force && m.shownKey == m.active && version == m.shownVersion {
		return false
	}
	m.shownKey, m.shownVersion = m.active, version

	if rows.Len() == 0 {
		m.viewport.SetContent(m.styles.Muted.Italic(true).Render(i18n.T("tui.live.waiting", "Waiting for events...")))
	} else {
		m.viewport.SetContent(rows.Render(m.renderer, m.viewport.Width(), &m.filters))
	}
	if m.followTail {
		m.viewport.GotoBottom()
	}
	return true
}

func (m *LiveModel) saveScroll() {
	if !m.ready {
		return
	}
	if rows, ok := m.rows.Get(m.active); ok {
		rows.RestoreScroll(view.ScrollState{Offset: m.viewport.YOffset(), FollowTail: m.followTail})
	}
}

func (m *LiveModel) restoreScroll() {
	rows, ok := m.rows.Get(m.active)
	if !ok {
		m.followTail = true
		m.refresh(true)
		return
	}
	st := rows.ScrollState()
	m.followTail = st.FollowTail
	m.refresh(true)
	if m.ready && !st.FollowTail {
		m.viewport.SetYOffset(st.Offset)
	}
}

func (m LiveModel) View() tea.View {
	if !m.ready {
		v := tea.NewView(m.spinner.View() + " " + i18n.T("tui.live.starting", "Connecting..."))
		v.AltScreen = true
		return v
	}

	header := m.renderHeader()
	sessions := m.styles.InactiveBorder.
		Width(sessionColumnWidth).
		Height(m.viewport.Height()).
		Render(m.renderSessions())
	body := m.styles.ActiveBorder.Render(m.viewport.View())
	help := m.styles.Help.Render(i18n.T("tui.live.help", "tab/shift+tab: session  a: all  r: resync  1-5: filters  G: follow  q: quit"))

	content := header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, sessions, body) + "\n" + help
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

func (m LiveModel) renderHeader() string {
	title := m.styles.Title.Render("thinkt-live: " + m.active)
	var status string
	switch {
	case !m.everSeen:
		status = m.spinner.View() + " " + m.styles.Muted.Render(i18n.T("tui.status.connecting", "connecting"))
	case !m.connected:
		status = m.styles.Disconnected.Render(i18n.T("tui.status.disconnected", "disconnected"))
		if m.statusErr != nil {
			status += m.styles.Muted.Render(" (" + m.statusErr.Error() + ")")
		}
	case m.resyncing:
		status = m.spinner.View() + " " + m.styles.Connected.Render(i18n.T("tui.status.loading", "loading"))
	case m.flashTicks > 0:
		status = m.spinner.View() + " " + m.styles.Connected.Render(i18n.T("tui.status.newData", "new data"))
	default:
		status = m.spinner.View() + " " + m.styles.Connected.Render(i18n.T("tui.status.live", "live"))
	}
	header := title + "  " + status
	if m.resyncErr != nil {
		header += "  " + m.styles.Error.Render(i18n.Tf("tui.live.resyncFailed", "resync failed: %s", m.resyncErr))
	}
	return header + "\n" + m.renderFilterStatus()
}

func (m LiveModel) renderSessions() string {
	var b strings.Builder
	byKey := make(map[string]transcript.SessionSummary, len(m.sessions))
	for _, s := range m.sessions {
		byKey[s.Key] = s
	}
	for _, k := range m.sessionKeys() {
		label := i18n.T("tui.sessions.all", "All sessions")
		if k != transcript.AllSessions {
			s := byKey[k]
			label = s.Title
			if label == "" {
				label = k
			}
			label = fmt.Sprintf("%s (%d)", truncate(label, sessionColumnWidth-12), s.Count)
			if s.LastSeenMs > 0 {
				label += " " + i18n.RelativeTimeShort(time.UnixMilli(int64(s.LastSeenMs)))
			}
		}
		if k == m.active {
			b.WriteString(m.styles.ListSelected.Render("> " + label))
		} else {
			b.WriteString(m.styles.ListItem.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m LiveModel) renderFilterStatus() string {
	type filterItem struct {
		key   string
		label string
		on    bool
	}
	items := []filterItem{
		{"1", i18n.T("tui.filter.user", "User"), m.filters.User},
		{"2", i18n.T("tui.filter.assistant", "Assistant"), m.filters.Assistant},
		{"3", i18n.T("tui.filter.tools", "Tools"), m.filters.Tools},
		{"4", i18n.T("tui.filter.thinking", "Thinking"), m.filters.Thinking},
		{"5", i18n.T("tui.filter.other", "Other"), m.filters.Other},
	}

	active := lipgloss.NewStyle().Bold(true)
	dim := lipgloss.NewStyle().Faint(true)

	var parts []string
	for _, it := range items {
		label := fmt.Sprintf("%s:%s", it.key, it.label)
		if it.on {
			parts = append(parts, active.Render(label))
		} else {
			parts = append(parts, dim.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
