package fake

import (
	"fmt"
	"slices"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
)

var (
	_ capability.Environment = &World{}
	_ capability.Interaction = &World{}
	_ capability.Journal     = &World{}
	_ capability.Teleport    = &World{}
	_ capability.Gathering   = &World{}
	_ capability.Movement    = Movement{}
	_ capability.Combat      = Combat{}
)

// interactDistance is the maximum distance to interact with objects.
const interactDistance = 10

// Environment.

func (w *World) Position() (model.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position, true
}

func (w *World) TerritoryID() uint16 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.territory
}

func (w *World) HasCondition(c capability.Condition) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conditions[c]
}

func (w *World) FreeInventorySlots() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.freeSlots
}

func (w *World) ItemCount(itemID uint32) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inventory[itemID]
}

func (w *World) IsEquipped(itemID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.equipped[itemID]
}

func (w *World) QuestProgress(id model.QuestID) (model.QuestWork, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	q, ok := w.quests[id]
	if !ok || !q.accepted {
		return model.QuestWork{}, false
	}
	return q.work, true
}

func (w *World) IsQuestAccepted(id model.QuestID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	q, ok := w.quests[id]
	return ok && q.accepted
}

func (w *World) IsQuestComplete(id model.QuestID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	q, ok := w.quests[id]
	return ok && q.complete
}

func (w *World) FindObject(dataID uint32) (model.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	o, ok := w.objects[dataID]
	if !ok || o.TerritoryID != w.territory {
		return model.Vec3{}, false
	}
	return o.Position, true
}

func (w *World) IsFlyingUnlocked(territory uint16) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flying[territory]
}

func (w *World) WarpPrompts(territory uint16) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.warps[territory])
}

// Interaction.

func (w *World) InteractWith(dataID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.inRange(dataID) {
		return false
	}
	if w.objects[dataID].Node {
		w.openNode = &dataID
		w.conditions[capability.ConditionGathering] = true
	}
	w.attune(dataID)
	w.fire(Trigger{Kind: TriggerInteract, ID: dataID})
	return true
}

func (w *World) inRange(dataID uint32) bool {
	o, ok := w.objects[dataID]
	return ok && o.TerritoryID == w.territory && o.Position.Distance(w.position) <= interactDistance
}

func (w *World) UseItem(itemID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inventory[itemID] == 0 {
		return false
	}
	w.fire(Trigger{Kind: TriggerUseItem, ID: itemID})
	return true
}

func (w *World) UseItemOn(itemID, dataID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inventory[itemID] == 0 || !w.inRange(dataID) {
		return false
	}
	w.fire(Trigger{Kind: TriggerUseItem, ID: itemID})
	return true
}

func (w *World) UseItemOnGround(itemID, dataID uint32) bool {
	return w.UseItemOn(itemID, dataID)
}

func (w *World) UseAction(actionID uint32, dataID *uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if dataID != nil && !w.inRange(*dataID) {
		return false
	}
	w.fire(Trigger{Kind: TriggerAction, ID: actionID})
	return true
}

func (w *World) Emote(emoteID uint32, dataID *uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if dataID != nil && !w.inRange(*dataID) {
		return false
	}
	w.fire(Trigger{Kind: TriggerEmote, ID: emoteID})
	return true
}

func (w *World) Say(message string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fire(Trigger{Kind: TriggerSay})
	return true
}

func (w *World) Mount() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conditions[capability.ConditionInCombat] || w.conditions[capability.ConditionBoundByDuty] {
		return false
	}
	w.conditions[capability.ConditionMounted] = true
	return true
}

func (w *World) Unmount() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conditions[capability.ConditionInFlight] {
		return false
	}
	w.conditions[capability.ConditionMounted] = false
	return true
}

func (w *World) Equip(itemID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armoryFull {
		w.raiseError(capability.DefaultMessages.InsufficientArmorySpace)
		return false
	}
	if w.inventory[itemID] == 0 {
		return false
	}
	w.equipped[itemID] = true
	return true
}

func (w *World) Craft(itemID uint32, quantity int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conditions[capability.ConditionInCombat] {
		return false
	}
	w.craftPending[itemID] += quantity
	return true
}

// Journal.

func (w *World) OpenJournal(id model.QuestID, kind model.DefinitionKind) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.journalOpen = &id
	return true
}

func (w *World) IsJournalOpen(id model.QuestID, kind model.DefinitionKind) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.journalOpen != nil && *w.journalOpen == id
}

func (w *World) InitiateLeve(id model.QuestID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.journalOpen == nil || *w.journalOpen != id {
		return false
	}
	w.difficulty = true
	return true
}

func (w *World) SelectLeveDifficulty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.difficulty || w.journalOpen == nil {
		return false
	}
	id := *w.journalOpen
	w.difficulty = false
	w.journalOpen = nil
	w.activeLeve = &id
	w.quest(id).accepted = true
	w.conditions[capability.ConditionBoundByDuty] = true
	return true
}

func (w *World) ActiveLeve() (model.QuestID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.activeLeve == nil {
		return 0, false
	}
	return *w.activeLeve, true
}

// Teleport.

func (w *World) IsUnlocked(location uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unlocked[location]
}

func (w *World) CanTeleport() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.conditions[capability.ConditionInCombat] && !w.conditions[capability.ConditionBoundByDuty]
}

func (w *World) TeleportTo(location uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	loc, ok := w.locations[location]
	if !ok || !w.unlocked[location] {
		return false
	}
	w.territory = loc.TerritoryID
	w.position = loc.Position
	w.nav = nil
	w.conditions[capability.ConditionMounted] = false
	w.conditions[capability.ConditionInFlight] = false
	return true
}

func (w *World) Location(location uint32) (capability.Location, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	loc, ok := w.locations[location]
	return loc, ok
}

// attune unlocks the locations tied to an object.
func (w *World) attune(dataID uint32) {
	for id, loc := range w.locations {
		if loc.DataID == dataID && loc.TerritoryID == w.territory {
			w.unlocked[id] = true
		}
	}
}

// Gathering.

func (w *World) SetRequest(req capability.GatheringRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gatherRequest = req
}

func (w *World) HasRequestedItems() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gatherRequest.ItemID != 0 && w.inventory[w.gatherRequest.ItemID] >= w.gatherRequest.Quantity
}

func (w *World) HasNodeDisappeared(node capability.GatheringNode) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.objects[node.DataID]
	return !ok
}

func (w *World) GatherItem(itemID uint32) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.openNode == nil || w.freeSlots == 0 {
		return false
	}
	node := *w.openNode
	w.inventory[itemID]++
	w.nodeGathers[node]++
	if w.nodeGathers[node] >= w.cfg.NodeCapacity {
		delete(w.objects, node)
		w.openNode = nil
		w.conditions[capability.ConditionGathering] = false
	}
	return true
}

func (w *World) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.openNode = nil
	w.conditions[capability.ConditionGathering] = false
}

// Movement is the movement service of the world.
type Movement struct{ w *World }

// Movement returns the movement service.
func (w *World) Movement() Movement { return Movement{w: w} }

func (m Movement) NavigateTo(dest model.Vec3, opts capability.MovementOptions) error {
	w := m.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.navmeshTicks > 0 && !opts.DisableNavmesh {
		return fmt.Errorf("navmesh is not ready")
	}
	w.nav = &navigation{destination: dest, opts: opts, pathfinding: 1}
	w.movedAt = w.cfg.Now()
	if opts.Fly && w.conditions[capability.ConditionMounted] && w.flying[w.territory] {
		w.conditions[capability.ConditionInFlight] = true
	}
	return nil
}

func (m Movement) IsNavmeshReady() bool {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.navmeshTicks == 0
}

func (m Movement) IsPathRunning() bool {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.nav != nil && m.w.nav.pathfinding == 0
}

func (m Movement) IsPathfinding() bool {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.nav != nil && m.w.nav.pathfinding > 0
}

func (m Movement) MovementStartedAt() time.Time {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	return m.w.movedAt
}

func (m Movement) Land() bool {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	m.w.conditions[capability.ConditionInFlight] = false
	return true
}

func (m Movement) Stop() {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	m.w.nav = nil
}

// Combat is the combat service of the world.
type Combat struct{ w *World }

// Combat returns the combat service.
func (w *World) Combat() Combat { return Combat{w: w} }

func (c Combat) Start(spec capability.CombatSpec) bool {
	w := c.w
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fight = &fight{spec: spec, ticksLeft: w.cfg.CombatTicks}
	w.conditions[capability.ConditionInCombat] = true
	w.conditions[capability.ConditionMounted] = false
	return true
}

func (c Combat) Update() capability.CombatStatus {
	w := c.w
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.fight == nil:
		return capability.CombatStatusNotStarted
	case w.fight.ticksLeft > 0:
		return capability.CombatStatusInCombat
	}
	return capability.CombatStatusComplete
}

func (c Combat) Stop(reason string) {
	w := c.w
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fight = nil
	w.conditions[capability.ConditionInCombat] = false
	w.logger.Debugf("Combat stopped: %s", reason)
}
