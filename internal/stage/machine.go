package stage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bandstand/internal/logging"
)

// Default stage names for a content page: cover view, selection grid, detail view.
const (
	StageInitial = "initial"
	StageGrid    = "grid"
	StageContent = "content"
)

// NoSelection is the SelectedIndex value when no grid item is chosen.
const NoSelection = -1

// Snapshot is the externally visible machine state. Views bind to snapshots
// instead of the machine mutating document state directly.
type Snapshot struct {
	Stage         string
	Animating     bool
	SelectedIndex int
	Generation    uint64
}

// Result reports whether a transition request was accepted. Rejected requests
// are silent no-ops by policy; the reason is exposed for logging and tests.
type Result struct {
	Applied bool
	Reason  string
}

func applied() Result { return Result{Applied: true} }

func rejected(reason string) Result { return Result{Reason: reason} }

// Config describes a machine's stages and transition behavior.
type Config struct {
	// Stages is the ordered list of stage names. Empty means the default
	// initial/grid/content triple.
	Stages []string
	// Defaults are page-level option overrides merged over the built-ins.
	Defaults Options
	// Effect runs the visual transition between stages. Nil means transitions
	// complete immediately.
	Effect Effect
	Logger *slog.Logger
}

// Machine drives a page through its ordered stages, one transition at a time.
// While a transition's effect runs the machine reports Animating and rejects
// further transition requests. A watchdog timer reclaims the machine when an
// effect never completes, so a stalled completion callback cannot wedge it.
type Machine struct {
	logger *slog.Logger
	stages []string
	effect Effect
	merged Options

	mu         sync.Mutex
	index      int
	selected   int
	animating  bool
	generation uint64
	watchdog   *time.Timer

	subs    map[int]chan Snapshot
	nextSub int
}

// NewMachine constructs a stage machine resting at the first stage.
func NewMachine(cfg Config) *Machine {
	stages := cfg.Stages
	if len(stages) < 2 {
		stages = []string{StageInitial, StageGrid, StageContent}
	}
	effect := cfg.Effect
	if effect == nil {
		effect = ImmediateEffect{}
	}
	return &Machine{
		logger:   logging.WithComponent(cfg.Logger, "stage"),
		stages:   append([]string(nil), stages...),
		effect:   effect,
		merged:   defaultOptions().merge(cfg.Defaults),
		selected: NoSelection,
		subs:     make(map[int]chan Snapshot),
	}
}

// Stages returns the machine's ordered stage names.
func (m *Machine) Stages() []string {
	return append([]string(nil), m.stages...)
}

// Snapshot returns the current machine state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Stage:         m.stages[m.index],
		Animating:     m.animating,
		SelectedIndex: m.selected,
		Generation:    m.generation,
	}
}

// Subscribe registers a snapshot listener. The returned cancel function must
// be called when the listener goes away. Slow listeners miss intermediate
// snapshots rather than blocking transitions.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 16)
	m.subs[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
}

func (m *Machine) publishLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Advance moves from the first stage to the grid stage.
func (m *Machine) Advance(ctx context.Context, opts ...Options) Result {
	return m.transition(ctx, 0, 1, NoSelection, opts)
}

// Select chooses a grid item and moves to the content stage. Invalid requests
// (wrong stage, animation in flight, negative index) are silent no-ops.
func (m *Machine) Select(ctx context.Context, index int, opts ...Options) Result {
	if index < 0 {
		return rejected("negative index")
	}
	if len(m.stages) < 3 {
		return rejected("machine has no content stage")
	}
	return m.transition(ctx, 1, 2, index, opts)
}

// Retreat steps back one stage: content collapses to grid, grid to the idle
// view. The selection is cleared when the machine returns to the first stage.
func (m *Machine) Retreat(ctx context.Context, opts ...Options) Result {
	m.mu.Lock()
	from := m.index
	m.mu.Unlock()
	if from == 0 {
		return rejected("already at first stage")
	}
	return m.transition(ctx, from, from-1, keepSelection, opts)
}

// Toggle advances from the idle view and retreats from anywhere else.
func (m *Machine) Toggle(ctx context.Context, opts ...Options) Result {
	m.mu.Lock()
	atFirst := m.index == 0
	m.mu.Unlock()
	if atFirst {
		return m.Advance(ctx, opts...)
	}
	return m.Retreat(ctx, opts...)
}

// keepSelection signals transition to leave the selected index untouched.
const keepSelection = -2

func (m *Machine) transition(ctx context.Context, from, to, selectIndex int, opts []Options) Result {
	merged := m.merged
	for _, o := range opts {
		merged = merged.merge(o)
	}

	m.mu.Lock()
	if m.animating {
		m.mu.Unlock()
		return rejected("animation in progress")
	}
	if m.index != from {
		m.mu.Unlock()
		return rejected("wrong stage")
	}
	if to < 0 || to >= len(m.stages) {
		m.mu.Unlock()
		return rejected("no such stage")
	}

	m.animating = true
	m.generation++
	generation := m.generation
	t := Transition{
		From:    m.stages[from],
		To:      m.stages[to],
		Index:   selectIndex,
		Options: merged,
	}
	m.watchdog = time.AfterFunc(merged.Watchdog, func() {
		m.reclaim(generation, t)
	})
	m.publishLocked()
	m.mu.Unlock()

	m.effect.Run(ctx, t, func() {
		m.complete(generation, to, selectIndex)
	})
	return applied()
}

// complete applies the transition's target state. Completions from a
// superseded generation (watchdog already fired) are ignored.
func (m *Machine) complete(generation uint64, to, selectIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation || !m.animating {
		return
	}
	if m.watchdog != nil {
		m.watchdog.Stop()
		m.watchdog = nil
	}
	m.index = to
	m.animating = false
	if selectIndex != keepSelection {
		m.selected = selectIndex
	}
	if to == 0 {
		m.selected = NoSelection
	}
	m.publishLocked()
}

// reclaim force-clears a transition whose effect never reported completion.
// The generation bump invalidates the pending completion callback.
func (m *Machine) reclaim(generation uint64, t Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != m.generation || !m.animating {
		return
	}
	m.generation++
	m.animating = false
	m.watchdog = nil
	m.logger.Warn("transition effect stalled, machine reclaimed",
		logging.String("from", t.From),
		logging.String("to", t.To),
		logging.Duration("watchdog", t.Options.Watchdog),
	)
	m.publishLocked()
}
