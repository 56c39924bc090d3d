// Package fake is a simulated world implementing every capability service. The
// host advances it once per tick, before ticking the engine.
package fake

import (
	"fmt"
	"sync"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
)

// WorldConfig is the configuration for the fake world.
type WorldConfig struct {
	TerritoryID uint16
	Position    model.Vec3
	// Speed is the distance walked on every advance.
	Speed float64
	// MountedSpeed is the distance travelled on every advance while mounted.
	MountedSpeed float64
	// CombatTicks is the number of advances a fight lasts.
	CombatTicks int
	// NodeCapacity is the number of gathers before a node disappears.
	NodeCapacity       int
	FreeInventorySlots int
	// NavmeshLoadTicks is the number of advances before the navmesh is ready.
	NavmeshLoadTicks int
	Now              func() time.Time
	Logger           log.Logger
}

func (c *WorldConfig) defaults() error {
	if c.Speed == 0 {
		c.Speed = 6
	}
	if c.MountedSpeed == 0 {
		c.MountedSpeed = 12
	}
	if c.CombatTicks == 0 {
		c.CombatTicks = 3
	}
	if c.NodeCapacity == 0 {
		c.NodeCapacity = 6
	}
	if c.FreeInventorySlots == 0 {
		c.FreeInventorySlots = 140
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "capability.FakeWorld"})
	return nil
}

// Object is an entity placed in the world.
type Object struct {
	DataID      uint32
	TerritoryID uint16
	Position    model.Vec3
	// Node marks gathering points, interacting opens them.
	Node bool
}

// TriggerKind is the kind of action that triggers world reactions.
type TriggerKind string

const (
	TriggerInteract TriggerKind = "interact"
	TriggerUseItem  TriggerKind = "use_item"
	TriggerAction   TriggerKind = "action"
	TriggerEmote    TriggerKind = "emote"
	TriggerSay      TriggerKind = "say"
	TriggerCombat   TriggerKind = "combat"
)

// Trigger identifies an action in the world. Say triggers use a zero ID, combat
// triggers use the quest ID.
type Trigger struct {
	Kind TriggerKind
	ID   uint32
}

// Effect is the change the world applies when a trigger fires.
type Effect struct {
	QuestID   model.QuestID
	Work      *model.QuestWork
	Accept    bool
	Complete  bool
	Territory *uint16
	Position  *model.Vec3
}

type questState struct {
	accepted bool
	complete bool
	work     model.QuestWork
}

type navigation struct {
	destination model.Vec3
	opts        capability.MovementOptions
	pathfinding int
}

type fight struct {
	spec      capability.CombatSpec
	ticksLeft int
}

// World is a deterministic simulated environment.
type World struct {
	mu     sync.Mutex
	cfg    WorldConfig
	logger log.Logger

	territory  uint16
	position   model.Vec3
	conditions map[capability.Condition]bool
	objects    map[uint32]Object
	inventory  map[uint32]int
	equipped   map[uint32]bool
	freeSlots  int
	armoryFull bool
	quests     map[model.QuestID]*questState
	locations  map[uint32]capability.Location
	unlocked   map[uint32]bool
	flying     map[uint16]bool
	warps      map[uint16][]string
	reactions  map[Trigger][]Effect
	errors     []string
	errorSubs  map[int]func(string)
	nextSubID  int
	actions    []string

	navmeshTicks int
	nav          *navigation
	movedAt      time.Time
	fight        *fight

	gatherRequest capability.GatheringRequest
	openNode      *uint32
	nodeGathers   map[uint32]int

	journalOpen  *model.QuestID
	difficulty   bool
	activeLeve   *model.QuestID
	craftPending map[uint32]int
}

// NewWorld returns a new fake world.
func NewWorld(cfg WorldConfig) (*World, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &World{
		cfg:          cfg,
		logger:       cfg.Logger,
		territory:    cfg.TerritoryID,
		position:     cfg.Position,
		conditions:   map[capability.Condition]bool{},
		objects:      map[uint32]Object{},
		inventory:    map[uint32]int{},
		equipped:     map[uint32]bool{},
		freeSlots:    cfg.FreeInventorySlots,
		quests:       map[model.QuestID]*questState{},
		locations:    map[uint32]capability.Location{},
		unlocked:     map[uint32]bool{},
		flying:       map[uint16]bool{},
		warps:        map[uint16][]string{},
		reactions:    map[Trigger][]Effect{},
		errorSubs:    map[int]func(string){},
		nodeGathers:  map[uint32]int{},
		craftPending: map[uint32]int{},
		navmeshTicks: cfg.NavmeshLoadTicks,
	}, nil
}

// Advance moves the simulation one tick forward.
func (w *World) Advance() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.navmeshTicks > 0 {
		w.navmeshTicks--
	}
	w.advanceMovement()
	w.advanceCombat()

	for item, qty := range w.craftPending {
		w.inventory[item] += qty
		delete(w.craftPending, item)
	}
}

func (w *World) advanceMovement() {
	if w.nav == nil {
		return
	}
	if w.nav.pathfinding > 0 {
		w.nav.pathfinding--
		return
	}

	speed := w.cfg.Speed
	if w.conditions[capability.ConditionMounted] {
		speed = w.cfg.MountedSpeed
	}

	dest := w.nav.destination
	dist := w.position.Distance(dest)
	if dist-speed <= w.nav.opts.StopDistance {
		// Stop right at the stop distance.
		if dist > w.nav.opts.StopDistance && dist > 0 {
			ratio := (dist - w.nav.opts.StopDistance) / dist
			w.position = lerp(w.position, dest, ratio)
		}
		w.nav = nil
		return
	}
	w.position = lerp(w.position, dest, speed/dist)
}

func lerp(from, to model.Vec3, ratio float64) model.Vec3 {
	return model.Vec3{
		X: from.X + (to.X-from.X)*ratio,
		Y: from.Y + (to.Y-from.Y)*ratio,
		Z: from.Z + (to.Z-from.Z)*ratio,
	}
}

func (w *World) advanceCombat() {
	if w.fight == nil || w.fight.ticksLeft == 0 {
		return
	}
	w.fight.ticksLeft--
	if w.fight.ticksLeft == 0 {
		w.conditions[capability.ConditionInCombat] = false
		w.fire(Trigger{Kind: TriggerCombat, ID: uint32(w.fight.spec.QuestID)})
	}
}

// fire applies the next pending effect of the trigger.
func (w *World) fire(t Trigger) {
	w.actions = append(w.actions, fmt.Sprintf("%s:%d", t.Kind, t.ID))

	effects := w.reactions[t]
	if len(effects) == 0 {
		return
	}
	e := effects[0]
	w.reactions[t] = effects[1:]

	q := w.quest(e.QuestID)
	if e.Accept {
		q.accepted = true
	}
	if e.Work != nil {
		q.work = *e.Work
	}
	if e.Complete {
		q.complete = true
		q.accepted = false
		if w.activeLeve != nil && *w.activeLeve == e.QuestID {
			w.activeLeve = nil
			w.conditions[capability.ConditionBoundByDuty] = false
		}
	}
	if e.Territory != nil {
		w.territory = *e.Territory
	}
	if e.Position != nil {
		w.position = *e.Position
	}
	w.logger.Debugf("Trigger %s:%d applied to quest %d", t.Kind, t.ID, e.QuestID)
}

func (w *World) quest(id model.QuestID) *questState {
	q, ok := w.quests[id]
	if !ok {
		q = &questState{}
		w.quests[id] = q
	}
	return q
}

// React registers an effect applied the next time the trigger fires. Effects of
// the same trigger are applied in registration order, one per firing.
func (w *World) React(t Trigger, e Effect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reactions[t] = append(w.reactions[t], e)
}

// PlaceObject places an object in the world.
func (w *World) PlaceObject(o Object) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.objects[o.DataID] = o
}

// RemoveObject removes an object from the world.
func (w *World) RemoveObject(dataID uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.objects, dataID)
}

// AddLocation registers a teleport location.
func (w *World) AddLocation(loc capability.Location, unlocked bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locations[loc.ID] = loc
	w.unlocked[loc.ID] = unlocked
}

// AddItem adds items to the inventory.
func (w *World) AddItem(itemID uint32, quantity int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inventory[itemID] += quantity
}

// SetTerritory moves the character to another territory.
func (w *World) SetTerritory(territory uint16, pos model.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.territory = territory
	w.position = pos
	w.nav = nil
}

// SetCondition sets a character condition.
func (w *World) SetCondition(c capability.Condition, v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conditions[c] = v
}

// SetQuestProgress sets the live progress of a quest.
func (w *World) SetQuestProgress(id model.QuestID, work model.QuestWork) {
	w.mu.Lock()
	defer w.mu.Unlock()
	q := w.quest(id)
	q.accepted = true
	q.work = work
}

// SetFlyingUnlocked unlocks flying in a territory.
func (w *World) SetFlyingUnlocked(territory uint16) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flying[territory] = true
}

// SetArmoryFull makes equipping fail with an armory error.
func (w *World) SetArmoryFull(full bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armoryFull = full
}

// SetFreeInventorySlots sets the free inventory slots.
func (w *World) SetFreeInventorySlots(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.freeSlots = n
}

// SetWarpPrompts sets the warp confirmation prompts leading to a territory.
func (w *World) SetWarpPrompts(territory uint16, prompts ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.warps[territory] = prompts
}

// SubscribeErrors registers a handler for the environment errors. While there
// are subscribers errors are pushed to them instead of buffered for DrainErrors.
func (w *World) SubscribeErrors(handler func(message string)) capability.Subscription {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSubID
	w.nextSubID++
	w.errorSubs[id] = handler

	var once sync.Once
	return capability.SubscriptionFunc(func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.errorSubs, id)
		})
	})
}

// Subscribers returns the number of active error subscriptions.
func (w *World) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.errorSubs)
}

// RaiseError raises an environment error message.
func (w *World) RaiseError(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.raiseError(message)
}

// raiseError requires the lock to be held.
func (w *World) raiseError(message string) {
	if len(w.errorSubs) == 0 {
		w.errors = append(w.errors, message)
		return
	}
	for _, h := range w.errorSubs {
		h(message)
	}
}

// DrainErrors returns and clears the environment errors raised since the last call.
func (w *World) DrainErrors() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	errs := w.errors
	w.errors = nil
	return errs
}

// Actions returns the triggers fired so far, in order.
func (w *World) Actions() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.actions...)
}
