// Package capability holds the contracts of the external services the engine
// drives. Implementations perform the actual actions in the live environment;
// the engine only fires commands and polls their status.
package capability

import (
	"time"

	"github.com/slok/questline/internal/model"
)

// Condition is a live status flag of the controlled character.
type Condition string

const (
	ConditionMounted     Condition = "mounted"
	ConditionInFlight    Condition = "in_flight"
	ConditionDiving      Condition = "diving"
	ConditionInCombat    Condition = "in_combat"
	ConditionBoundByDuty Condition = "bound_by_duty"
	ConditionGathering   Condition = "gathering"
	ConditionOccupied    Condition = "occupied"
)

// MovementOptions tune a navigation request.
type MovementOptions struct {
	DataID                 *uint32
	StopDistance           float64
	Fly                    bool
	Sprint                 bool
	Land                   bool
	DisableNavmesh         bool
	IgnoreDistanceToObject bool
}

// Movement moves the character around. It is ticked by the host independently
// of the engine.
type Movement interface {
	NavigateTo(destination model.Vec3, opts MovementOptions) error
	IsNavmeshReady() bool
	IsPathRunning() bool
	IsPathfinding() bool
	// MovementStartedAt returns the zero time when no movement has been started.
	MovementStartedAt() time.Time
	// Land requests landing while flying, returns false if it couldn't be requested.
	Land() bool
	Stop()
}

// CombatStatus is the status reported by the combat service.
type CombatStatus string

const (
	CombatStatusNotStarted CombatStatus = "not_started"
	CombatStatusInCombat   CombatStatus = "in_combat"
	CombatStatusMoving     CombatStatus = "moving"
	CombatStatusComplete   CombatStatus = "complete"
)

// CombatSpec describes the fight a combat step expects.
type CombatSpec struct {
	QuestID          model.QuestID
	SpawnType        model.EnemySpawnType
	KillEnemyDataIDs []uint32
}

// Combat fights the enemies of combat steps.
type Combat interface {
	Start(spec CombatSpec) bool
	Update() CombatStatus
	Stop(reason string)
}

// GatheringNode is a gathering point in the environment.
type GatheringNode struct {
	DataID      uint32
	Position    model.Vec3
	TerritoryID uint16
}

// GatheringRequest is the item and amount wanted from gathering.
type GatheringRequest struct {
	ItemID   uint32
	Quantity int
}

// Gathering collects items from gathering nodes.
type Gathering interface {
	SetRequest(req GatheringRequest)
	HasRequestedItems() bool
	HasNodeDisappeared(node GatheringNode) bool
	// GatherItem gathers one unit of the item from the open node.
	GatherItem(itemID uint32) bool
	// Close closes the open node.
	Close()
}

// Interaction fires single actions in the environment.
type Interaction interface {
	InteractWith(dataID uint32) bool
	UseItem(itemID uint32) bool
	UseItemOn(itemID, dataID uint32) bool
	UseItemOnGround(itemID, dataID uint32) bool
	UseAction(actionID uint32, dataID *uint32) bool
	Emote(emoteID uint32, dataID *uint32) bool
	Say(message string) bool
	Mount() bool
	Unmount() bool
	Equip(itemID uint32) bool
	Craft(itemID uint32, quantity int) bool
}

// Journal drives the quest journal, used to initiate leves.
type Journal interface {
	OpenJournal(id model.QuestID, kind model.DefinitionKind) bool
	IsJournalOpen(id model.QuestID, kind model.DefinitionKind) bool
	// InitiateLeve returns false while the journal detail isn't ready.
	InitiateLeve(id model.QuestID) bool
	// SelectLeveDifficulty returns false while the difficulty dialog isn't ready.
	SelectLeveDifficulty() bool
	ActiveLeve() (model.QuestID, bool)
}

// Location is a teleport or attunement location.
type Location struct {
	ID          uint32
	DataID      uint32
	TerritoryID uint16
	Position    model.Vec3
}

// Teleport moves the character between unlocked locations.
type Teleport interface {
	IsUnlocked(location uint32) bool
	CanTeleport() bool
	TeleportTo(location uint32) bool
	Location(location uint32) (Location, bool)
}

// Environment answers queries about the live state.
type Environment interface {
	Position() (model.Vec3, bool)
	TerritoryID() uint16
	HasCondition(c Condition) bool
	FreeInventorySlots() int
	ItemCount(itemID uint32) int
	IsEquipped(itemID uint32) bool
	QuestProgress(id model.QuestID) (model.QuestWork, bool)
	IsQuestAccepted(id model.QuestID) bool
	IsQuestComplete(id model.QuestID) bool
	FindObject(dataID uint32) (model.Vec3, bool)
	IsFlyingUnlocked(territoryID uint16) bool
	// WarpPrompts returns the confirmation prompts of warps leading to the territory.
	WarpPrompts(territoryID uint16) []string
}

// ErrorNotifier is implemented by environments that push their error messages
// instead of having the host forward them.
type ErrorNotifier interface {
	SubscribeErrors(handler func(message string)) Subscription
}

// Subscription is a registration on a notifier. Release is safe to call more
// than once.
type Subscription interface {
	Release()
}

// SubscriptionFunc is a helper to create subscriptions from functions.
type SubscriptionFunc func()

// Release satisfies Subscription.
func (s SubscriptionFunc) Release() { s() }

// Messages are the environment error texts the engine reacts to.
type Messages struct {
	CannotExecuteAtThisTime string
	InsufficientArmorySpace string
}

// DefaultMessages are the english environment messages.
var DefaultMessages = Messages{
	CannotExecuteAtThisTime: "Unable to execute command at this time.",
	InsufficientArmorySpace: "Insufficient space in armoury chest.",
}
