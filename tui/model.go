package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-daw/debug"
	"go-daw/library"
	"go-daw/midi"
	"go-daw/sequencer"
	"go-daw/theme"
	"go-daw/transport"
	"go-daw/widgets"
)

// A piano-roll step is two characters wide and a pitch is one row tall, so
// a character is half a grid cell in pointer pixels.
const (
	charsPerStp = 2

	rollRows     = 16
	rollSteps    = 32
	libraryRows  = 8
	doubleClick  = 400 * time.Millisecond
	redrawPeriod = 50 * time.Millisecond
)

var waves = []string{"sine", "triangle", "square", "sawtooth"}

// layoutBounds holds cached layout info
type layoutBounds struct {
	chainRow  int
	chainLeft int
	blocks    []widgets.Block

	libraryTop   int
	libraryFirst int

	gridTop  int
	gridLeft int
}

type click struct {
	x, y int
	at   time.Time
}

// uiState is mutable state shared by copies of Model.
type uiState struct {
	held      map[string]int // key -> press sequence
	seq       int
	drag      *library.Payload
	lastClick click
	libCursor int
	wave      int
	status    string
	bounds    layoutBounds
}

type Model struct {
	Manager   *sequencer.Manager
	Transport *transport.Transport
	Devices   *midi.DeviceManager
	Theme     *theme.Theme
	Keyboard  midi.Keyboard
	Library   []library.Item

	topPitch   int
	scrollStep int
	quitting   bool
	ui         *uiState
}

type releaseMsg struct {
	key string
	seq int
}

type redrawMsg struct{}

func NewModel(mgr *sequencer.Manager, tr *transport.Transport, devices *midi.DeviceManager,
	th *theme.Theme, kb midi.Keyboard, catalog *library.Catalog) Model {
	m := Model{
		Manager:   mgr,
		Transport: tr,
		Devices:   devices,
		Theme:     th,
		Keyboard:  kb,
		Library:   catalog.All(),
		topPitch:  kb.Octave*12 + 12,
		ui:        &uiState{held: make(map[string]int)},
	}
	m.syncGeometry()
	return m
}

func redraw() tea.Cmd {
	return tea.Tick(redrawPeriod, func(time.Time) tea.Msg { return redrawMsg{} })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(ListenForPorts(m.Devices), redraw())
}

// syncGeometry points the piano-roll geometry at the visible window.
func (m Model) syncGeometry() {
	g := &m.Manager.Roll.Geometry
	g.Invert = true
	g.Height = (m.topPitch + 1) * g.GridSize
	g.ScrollX = m.scrollStep * g.GridSize
	g.OriginX, g.OriginY, g.ScrollY = 0, 0, 0
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CallbackMsg:
		msg()

	case NoteMsg:
		m.Manager.Update(sequencer.NoteInput{Event: midi.Event(msg)})

	case PortMsg:
		m.Manager.Update(sequencer.PortChanged{Event: midi.PortEvent(msg)})
		return m, ListenForPorts(m.Devices)

	case releaseMsg:
		if m.ui.held[msg.key] == msg.seq {
			delete(m.ui.held, msg.key)
			if ev, ok := m.Keyboard.Lift(msg.key); ok {
				m.Manager.Update(sequencer.NoteInput{Event: ev})
			}
		}

	case redrawMsg:
		return m, redraw()

	case tea.KeyMsg:
		return m.key(msg.String())

	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

func (m Model) key(k string) (tea.Model, tea.Cmd) {
	if ev, ok := m.Keyboard.Press(k); ok {
		m.ui.seq++
		if _, down := m.ui.held[k]; !down {
			m.Manager.Update(sequencer.NoteInput{Event: ev})
		}
		m.ui.held[k] = m.ui.seq
		seq := m.ui.seq
		return m, tea.Tick(m.Keyboard.Hold, func(time.Time) tea.Msg { return releaseMsg{key: k, seq: seq} })
	}

	sel := m.Manager.SelectedID()
	switch k {
	case "q", "ctrl+c":
		m.quitting = true
		m.Manager.Update(sequencer.Play{On: false})
		return m, tea.Quit
	case " ":
		m.Manager.Update(sequencer.Play{On: !m.Manager.Playing()})
	case "+", "=":
		m.Manager.Update(sequencer.SetTempo{BPM: m.Manager.BPM() + 5})
	case "-", "_":
		m.Manager.Update(sequencer.SetTempo{BPM: m.Manager.BPM() - 5})
	case "a":
		m.Manager.Update(sequencer.AddTrack{})
	case "R":
		m.Manager.Update(sequencer.RemoveTrack{Track: sel})
	case "up", "down":
		m.Manager.Update(sequencer.SelectTrack{Track: m.neighbourTrack(k == "down")})
	case "p":
		m.Manager.Update(sequencer.AddPattern{})
	case "[", "]":
		m.cyclePattern(k == "]")
	case "tab":
		m.ui.libCursor = (m.ui.libCursor + 1) % len(m.Library)
	case "shift+tab":
		m.ui.libCursor = (m.ui.libCursor + len(m.Library) - 1) % len(m.Library)
	case "enter":
		p := library.Payload{Item: m.Library[m.ui.libCursor]}
		m.Manager.Update(sequencer.Drop{Payload: p})
		m.ui.status = "dropped " + p.Name
	case "e":
		if t := m.Manager.Selected(); t != nil && len(t.Effects) > 0 {
			m.Manager.Update(sequencer.RemoveEffect{Track: sel, Index: len(t.Effects) - 1})
		}
	case "i":
		m.Manager.Update(sequencer.RemoveInstrument{Track: sel})
	case "w":
		m.ui.wave = (m.ui.wave + 1) % len(waves)
		m.Manager.Update(sequencer.SetParam{Track: sel, Slot: sequencer.InstrumentSlot,
			Name: "oscillator.type", Value: waves[m.ui.wave]})
		m.ui.status = "oscillator " + waves[m.ui.wave]
	case "o":
		m.cyclePort(sel, true)
	case "u":
		m.cyclePort(sel, false)
	case "<", ",":
		if m.Keyboard.Octave > 0 {
			m.Keyboard.Octave--
		}
	case ">", ".":
		if m.Keyboard.Octave < 9 {
			m.Keyboard.Octave++
		}
	case "left":
		m.scrollStep = max(m.scrollStep-4, 0)
	case "right":
		m.scrollStep += 4
	case "pgup":
		m.topPitch = min(m.topPitch+12, 127)
	case "pgdown":
		m.topPitch = max(m.topPitch-12, rollRows-1)
	}
	m.syncGeometry()
	return m, nil
}

func (m Model) neighbourTrack(next bool) int {
	tracks := m.Manager.Tracks()
	for i, t := range tracks {
		if t.ID != m.Manager.SelectedID() {
			continue
		}
		if next && i+1 < len(tracks) {
			return tracks[i+1].ID
		}
		if !next && i > 0 {
			return tracks[i-1].ID
		}
	}
	return m.Manager.SelectedID()
}

func (m Model) cyclePattern(next bool) {
	t := m.Manager.Selected()
	if t == nil || len(t.Patterns) == 0 {
		return
	}
	idx := 0
	for i, p := range t.Patterns {
		if p.ID == t.SelectedPattern {
			idx = i
		}
	}
	if next {
		idx = (idx + 1) % len(t.Patterns)
	} else {
		idx = (idx + len(t.Patterns) - 1) % len(t.Patterns)
	}
	m.Manager.Update(sequencer.SelectPattern{Pattern: t.Patterns[idx].ID})
}

// cyclePort steps the track's input (or output) through "" and every known port.
func (m Model) cyclePort(track int, input bool) {
	t := m.Manager.Track(track)
	if t == nil {
		return
	}
	ids := []string{""}
	cur := t.MIDIOutputID
	ports := m.Devices.Outputs()
	if input {
		cur = t.MIDIInputID
		ports = m.Devices.Inputs()
	}
	for _, p := range ports {
		ids = append(ids, p.ID)
	}
	next := ids[0]
	for i, id := range ids {
		if id == cur {
			next = ids[(i+1)%len(ids)]
		}
	}
	if input {
		m.Manager.Update(sequencer.SetTrackInput{Track: track, Port: next})
	} else {
		m.Manager.Update(sequencer.SetTrackOutput{Track: track, Port: next})
	}
}

func (m Model) mouse(msg tea.MouseMsg) {
	b := &m.ui.bounds
	left := msg.Button == tea.MouseButtonLeft

	// Library drag and drop onto the chain row.
	switch {
	case msg.Action == tea.MouseActionPress && left && m.ui.drag == nil:
		if i := msg.Y - b.libraryTop; i >= 0 && i < libraryRows && b.libraryFirst+i < len(m.Library) {
			m.ui.libCursor = b.libraryFirst + i
			p := library.Payload{Item: m.Library[m.ui.libCursor]}
			m.ui.drag = &p
			return
		}
		if msg.Y == b.chainRow {
			for i, blk := range b.blocks {
				t := m.Manager.Selected()
				if t == nil || i >= len(t.Effects) {
					break
				}
				if x := msg.X - b.chainLeft; x >= blk.X && x < blk.X+blk.Width {
					idx := i
					p := library.Payload{Item: library.Item{Type: library.TypeEffect, ID: t.Effects[i].Kind.Tag, Name: t.Effects[i].Name}, Index: &idx}
					m.ui.drag = &p
					return
				}
			}
		}
	case m.ui.drag != nil && msg.Action == tea.MouseActionMotion:
		if msg.Y == b.chainRow {
			m.Manager.Update(sequencer.DragOver{Spans: m.spans(), X: float64(msg.X - b.chainLeft)})
		} else {
			m.Manager.Update(sequencer.DragEnd{})
		}
		return
	case m.ui.drag != nil && msg.Action == tea.MouseActionRelease:
		if msg.Y == b.chainRow {
			m.Manager.Update(sequencer.DragOver{Spans: m.spans(), X: float64(msg.X - b.chainLeft)})
			m.Manager.Update(sequencer.Drop{Payload: *m.ui.drag})
			m.ui.status = "dropped " + m.ui.drag.Name
		} else {
			m.Manager.Update(sequencer.DragEnd{})
		}
		m.ui.drag = nil
		return
	}

	// Piano roll.
	row, col := msg.Y-b.gridTop, msg.X-b.gridLeft
	if row < 0 || row >= rollRows || col < 0 || col >= rollSteps*charsPerStp {
		return
	}
	gs := m.Manager.Roll.GridSize
	ev := sequencer.PointerEvent{X: (2*col+1)*gs/(2*charsPerStp), Y: row*gs + gs/2}
	switch msg.Action {
	case tea.MouseActionPress:
		if !left {
			return
		}
		now := time.Now()
		last := m.ui.lastClick
		if last.x == msg.X && last.y == msg.Y && now.Sub(last.at) < doubleClick {
			ev.Kind = sequencer.PointerDoubleClick
			m.ui.lastClick = click{}
		} else {
			ev.Kind = sequencer.PointerDown
			m.ui.lastClick = click{x: msg.X, y: msg.Y, at: now}
		}
	case tea.MouseActionRelease:
		ev.Kind = sequencer.PointerUp
	default:
		ev.Kind = sequencer.PointerMove
	}
	m.Manager.Update(sequencer.Pointer{Event: ev})
}

func (m Model) spans() []sequencer.Span {
	out := make([]sequencer.Span, len(m.ui.bounds.blocks))
	for i, b := range m.ui.bounds.blocks {
		out[i] = sequencer.Span{X: float64(b.X), Width: float64(b.Width)}
	}
	return out
}

func (m Model) playhead(length int) int {
	if !m.Transport.Playing() || length <= 0 {
		return -1
	}
	step := sequencer.StepDuration(1, m.Transport.BPM())
	if step <= 0 {
		return -1
	}
	return int(m.Transport.Position()/step) % length
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	th := m.Theme
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	selStyle := lipgloss.NewStyle().Foreground(th.Cursor())
	b := &m.ui.bounds

	var lines []string
	add := func(s string) {
		lines = append(lines, strings.Split(s, "\n")...)
	}

	playState := "STOP"
	if m.Transport.Playing() {
		playState = "PLAY"
	}
	add("")
	add(headerStyle.Render(fmt.Sprintf("go-daw  %s  %3.0fbpm  oct:%d  midi in:%d out:%d",
		playState, m.Manager.BPM(), m.Keyboard.Octave, len(m.Devices.Inputs()), len(m.Devices.Outputs()))))
	add("")

	// Tracks
	sel := m.Manager.Selected()
	for _, t := range m.Manager.Tracks() {
		in, out := t.MIDIInputID, t.MIDIOutputID
		if in == "" {
			in = "selected"
		}
		if out == "" {
			out = "-"
		}
		pat := "-"
		if p := t.Selected(); p != nil {
			pat = p.Name
		}
		line := fmt.Sprintf("%d %-10s in:%-12s out:%-12s %s", t.ID, t.Name, in, out, pat)
		if t == sel {
			add(selStyle.Render("> " + line))
		} else {
			add(dimStyle.Render("  " + line))
		}
	}
	if sel == nil {
		add(dimStyle.Render("  no tracks - press a"))
	}
	add("")

	// Chain
	hover := -1
	if tgt, ok := m.Manager.Drops.Target(); ok {
		hover = tgt.Insert()
	}
	view := widgets.ChainView{Hover: hover}
	if sel != nil {
		if sel.Instrument != nil {
			view.Instrument = sel.Instrument.Name
		}
		for _, fx := range sel.Effects {
			view.Effects = append(view.Effects, fx.Name)
		}
	}
	chain, blocks := widgets.RenderChain(th, view)
	const chainLabel = "chain  "
	b.chainRow, b.chainLeft, b.blocks = len(lines), len(chainLabel), blocks
	add(dimStyle.Render(chainLabel) + chain)
	add("")

	// Library window around the cursor
	first := max(0, min(m.ui.libCursor-libraryRows/2, len(m.Library)-libraryRows))
	var names []string
	for i := first; i < min(first+libraryRows, len(m.Library)); i++ {
		it := m.Library[i]
		label := fmt.Sprintf("%-10s %s", it.Type, it.Name)
		if !it.Playable() {
			label += " (unavailable)"
		}
		names = append(names, label)
	}
	b.libraryTop, b.libraryFirst = len(lines)+1, first
	add(widgets.RenderList(th, "library (drag onto chain, enter to add)", names, m.ui.libCursor-first))
	add("")

	// Piano roll
	if sel != nil && sel.Selected() != nil {
		p := sel.Selected()
		notes := make([]widgets.RollNote, len(p.Notes))
		for i, n := range p.Notes {
			notes[i] = widgets.RollNote{Pitch: n.NoteIndex, Start: n.StartTime, Length: n.NoteLength}
		}
		roll := widgets.RenderRoll(th, widgets.RollView{
			Notes:     notes,
			TopPitch:  m.topPitch,
			Rows:      rollRows,
			FirstStep: m.scrollStep,
			Steps:     rollSteps,
			CellWidth: charsPerStp,
			BeatSteps: sequencer.StepsPerBeat,
			Playhead:  m.playhead(p.Length),
		})
		b.gridTop, b.gridLeft = len(lines)+1, widgets.LabelWidth
		add(roll)
	} else {
		b.gridTop = -1000
		add(dimStyle.Render("No pattern selected - press p"))
	}
	add("")

	add(dimStyle.Render(widgets.RenderKeyLine([]widgets.KeyBinding{
		{Key: "zsxdcvgbhnjm", Desc: "play"}, {Key: "space", Desc: "play/stop"}, {Key: "+/-", Desc: "tempo"},
		{Key: "a/R", Desc: "add/remove track"}, {Key: "p [ ]", Desc: "patterns"}, {Key: "tab enter", Desc: "library"},
		{Key: "e/i", Desc: "remove fx/instrument"}, {Key: "w", Desc: "wave"}, {Key: "o/u", Desc: "midi in/out"},
		{Key: "q", Desc: "quit"},
	})))
	if m.ui.status != "" {
		add(dimStyle.Render(m.ui.status))
	}

	debug.LogEvery(200, "tui", "render %d lines", len(lines))
	return strings.Join(lines, "\n")
}
