package trackertui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/service"
)

const (
	historyRows     = 12
	timestampLayout = "15:04:05"
)

type updateMsg service.Update

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	dim      lipgloss.Style
	alert    lipgloss.Style
	pane     lipgloss.Style
	types    map[actor.Type]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		alert:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		pane:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		types: map[actor.Type]lipgloss.Style{
			actor.TypeAlly:        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			actor.TypeEnemy:       lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
			actor.TypeEnvironment: lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
			actor.TypeNeutral:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		},
	}
}

// model is the terminal UI state. Edits are staged in input and only sent to
// the service when Enter commits them.
type model struct {
	ctx       context.Context
	svc       *service.Service
	sessionID string

	updates     <-chan service.Update
	unsubscribe func()

	snapshot     service.Snapshot
	logs         []history.Entry
	cursor       int
	editing      bool
	input        string
	confirmClear bool
	status       string
	styles       styles
}

func newModel(ctx context.Context, svc *service.Service, sessionID string) (*model, error) {
	updates, unsubscribe, err := svc.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	logs, err := svc.Logs(ctx, sessionID, historyRows)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	return &model{
		ctx:         ctx,
		svc:         svc,
		sessionID:   sessionID,
		updates:     updates,
		unsubscribe: unsubscribe,
		logs:        logs,
		styles:      newStyles(),
	}, nil
}

func (m *model) close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func waitForUpdate(updates <-chan service.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return updateMsg(update)
	}
}

func (m *model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.apply(service.Update(msg))
		return m, waitForUpdate(m.updates)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			m.handleInput(msg)
			return m, nil
		}
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *model) apply(update service.Update) {
	switch update.Kind {
	case service.UpdateSnapshot:
		if update.Snapshot != nil {
			m.snapshot = *update.Snapshot
			m.cursor = min(m.cursor, max(len(m.snapshot.Actors)-1, 0))
		}
	case service.UpdateLog:
		if update.Entry != nil {
			m.logs = append([]history.Entry{*update.Entry}, m.logs...)
			if len(m.logs) > historyRows {
				m.logs = m.logs[:historyRows]
			}
		}
	case service.UpdateWriteError:
		if update.WriteError != nil {
			m.status = "save failed: " + update.WriteError.Error()
		}
	}
}

func (m *model) handleKey(key string) tea.Cmd {
	if m.confirmClear {
		m.confirmClear = false
		if key == "y" {
			m.logs = m.logs[:0]
			m.report(m.svc.ClearAll(m.ctx, m.sessionID))
		}
		return nil
	}

	m.status = ""
	switch key {
	case "q":
		return tea.Quit
	case "j", "down":
		m.cursor = min(m.cursor+1, max(len(m.snapshot.Actors)-1, 0))
	case "k", "up":
		m.cursor = max(m.cursor-1, 0)
	case "a":
		_, err := m.svc.AddActor(m.ctx, m.sessionID, roster.Draft{})
		m.reportErr(err)
	case "r":
		m.report(m.svc.RollAll(m.ctx, m.sessionID))
	case "n":
		m.report(m.svc.NextCycle(m.ctx, m.sessionID))
	case "x":
		m.confirmClear = true
	case "d":
		if selected, ok := m.selected(); ok {
			m.reportErr(m.svc.RemoveActor(m.ctx, m.sessionID, selected.ID))
		}
	case "t":
		if selected, ok := m.selected(); ok {
			_, _, err := m.svc.CycleActorType(m.ctx, m.sessionID, selected.ID)
			m.reportErr(err)
		}
	case "s":
		if selected, ok := m.selected(); ok {
			_, _, err := m.svc.AddStatus(m.ctx, m.sessionID, selected.ID, roster.StatusDraft{})
			m.reportErr(err)
		}
	case "e":
		if _, ok := m.selected(); ok {
			m.editing = true
			m.input = ""
		}
	}
	return nil
}

func (m *model) handleInput(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input = ""
	case tea.KeyEnter:
		m.editing = false
		line := m.input
		m.input = ""
		if selected, ok := m.selected(); ok {
			m.reportErr(m.commit(selected, line))
		}
	case tea.KeyBackspace:
		if runes := []rune(m.input); len(runes) > 0 {
			m.input = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
}

// commit applies one staged edit line such as "hp -3", "init 12",
// "name Goblin" or "dur +5" (first status) to the selected actor.
func (m *model) commit(selected actor.Actor, line string) error {
	field, value, _ := strings.Cut(strings.TrimSpace(line), " ")
	value = strings.TrimSpace(value)
	switch strings.ToLower(field) {
	case "":
		return nil
	case "name":
		_, _, err := m.svc.UpdateActor(m.ctx, m.sessionID, selected.ID, roster.Patch{Name: &value})
		return err
	case "notes":
		_, _, err := m.svc.UpdateActor(m.ctx, m.sessionID, selected.ID, roster.Patch{Notes: &value})
		return err
	case "tier":
		tier := actor.Tier(value)
		_, _, err := m.svc.UpdateActor(m.ctx, m.sessionID, selected.ID, roster.Patch{Tier: &tier})
		return err
	case "dur":
		if len(selected.Statuses) == 0 {
			return nil
		}
		_, _, err := m.svc.EditStatusDuration(m.ctx, m.sessionID, selected.ID, selected.Statuses[0].ID, value)
		return err
	case "init":
		field = string(actor.FieldInitiative)
	case "max":
		field = string(actor.FieldMaxHP)
	}
	parsed, err := actor.ParseField(field)
	if err != nil {
		return err
	}
	_, applied, err := m.svc.EditActorField(m.ctx, m.sessionID, selected.ID, parsed, value)
	if err == nil && !applied {
		m.status = fmt.Sprintf("ignored %q", value)
	}
	return err
}

func (m *model) selected() (actor.Actor, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Actors) {
		return actor.Actor{}, false
	}
	return m.snapshot.Actors[m.cursor], true
}

func (m *model) report(_ []history.Entry, err error) {
	m.reportErr(err)
}

func (m *model) reportErr(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m *model) View() string {
	var b strings.Builder
	mode := m.snapshot.Mode
	if mode == "" {
		mode = "steady"
	}
	b.WriteString(m.styles.title.Render("Maze Tracker"))
	b.WriteString(m.styles.dim.Render(fmt.Sprintf("  %s · %s · %s", m.sessionID, mode, m.snapshot.Order)))
	b.WriteString("\n\n")

	var rows strings.Builder
	if len(m.snapshot.Actors) == 0 {
		rows.WriteString(m.styles.dim.Render("No actors. Press a to add one."))
	}
	for i, a := range m.snapshot.Actors {
		line := fmt.Sprintf("%3d  %-20s %s  %-11s %3d/%-3d %s",
			a.Initiative, truncate(a.Name, 20), a.Tier, a.Type, a.HP, a.MaxHP, renderStatuses(a.Statuses))
		if i == m.cursor {
			line = m.styles.selected.Render(line)
		} else if style, ok := m.styles.types[a.Type]; ok {
			line = style.Render(line)
		}
		rows.WriteString(line)
		if i < len(m.snapshot.Actors)-1 {
			rows.WriteString("\n")
		}
	}

	var logs strings.Builder
	for i, entry := range m.logs {
		logs.WriteString(m.styles.dim.Render(entry.CreatedAt.Local().Format(timestampLayout)))
		logs.WriteString(" ")
		logs.WriteString(entry.Message)
		if i < len(m.logs)-1 {
			logs.WriteString("\n")
		}
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.pane.Render(rows.String()),
		m.styles.pane.Render(logs.String()),
	))
	b.WriteString("\n")

	switch {
	case m.editing:
		b.WriteString("edit> " + m.input + "█")
	case m.confirmClear:
		b.WriteString(m.styles.alert.Render("Clear every actor and log line? y to confirm"))
	default:
		b.WriteString(m.styles.dim.Render("a add · r roll · n next cycle · x clear · j/k move · d delete · t type · s status · e edit · q quit"))
	}
	if m.status != "" {
		b.WriteString("\n" + m.styles.alert.Render(m.status))
	}
	return b.String()
}

func renderStatuses(statuses []actor.Status) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%s(%d)", s.Name, s.Duration))
	}
	return strings.Join(parts, " ")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
