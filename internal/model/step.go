package model

import (
	"fmt"
	"math"
)

// InteractionType is the closed set of interactions a step can declare.
type InteractionType string

const (
	InteractionNone                    InteractionType = "none"
	InteractionInteract                InteractionType = "interact"
	InteractionWalkTo                  InteractionType = "walk_to"
	InteractionAttuneAethernetShard    InteractionType = "attune_aethernet_shard"
	InteractionAttuneAetheryte         InteractionType = "attune_aetheryte"
	InteractionAttuneAetherCurrent     InteractionType = "attune_aether_current"
	InteractionCombat                  InteractionType = "combat"
	InteractionUseItem                 InteractionType = "use_item"
	InteractionEquipItem               InteractionType = "equip_item"
	InteractionSay                     InteractionType = "say"
	InteractionEmote                   InteractionType = "emote"
	InteractionAction                  InteractionType = "action"
	InteractionWaitForObjectAtPosition InteractionType = "wait_for_object_at_position"
	InteractionWaitForManualProgress   InteractionType = "wait_for_manual_progress"
	InteractionDuty                    InteractionType = "duty"
	InteractionSinglePlayerDuty        InteractionType = "single_player_duty"
	InteractionCraft                   InteractionType = "craft"
	InteractionInstruction             InteractionType = "instruction"
	InteractionAcceptQuest             InteractionType = "accept_quest"
	InteractionCompleteQuest           InteractionType = "complete_quest"
	InteractionAcceptLeve              InteractionType = "accept_leve"
	InteractionInitiateLeve            InteractionType = "initiate_leve"
	InteractionCompleteLeve            InteractionType = "complete_leve"
	InteractionGather                  InteractionType = "gather"
)

// InteractionTypes lists every known interaction type.
var InteractionTypes = []InteractionType{
	InteractionNone,
	InteractionInteract,
	InteractionWalkTo,
	InteractionAttuneAethernetShard,
	InteractionAttuneAetheryte,
	InteractionAttuneAetherCurrent,
	InteractionCombat,
	InteractionUseItem,
	InteractionEquipItem,
	InteractionSay,
	InteractionEmote,
	InteractionAction,
	InteractionWaitForObjectAtPosition,
	InteractionWaitForManualProgress,
	InteractionDuty,
	InteractionSinglePlayerDuty,
	InteractionCraft,
	InteractionInstruction,
	InteractionAcceptQuest,
	InteractionCompleteQuest,
	InteractionAcceptLeve,
	InteractionInitiateLeve,
	InteractionCompleteLeve,
	InteractionGather,
}

// Valid returns true if the interaction type is a known one.
func (t InteractionType) Valid() bool {
	for _, it := range InteractionTypes {
		if it == t {
			return true
		}
	}
	return false
}

// IsAttune returns true for the attunement interactions.
func (t InteractionType) IsAttune() bool {
	return t == InteractionAttuneAetheryte || t == InteractionAttuneAethernetShard || t == InteractionAttuneAetherCurrent
}

// EnemySpawnType tells how the enemies of a combat step appear.
type EnemySpawnType string

const (
	EnemySpawnNone             EnemySpawnType = ""
	EnemySpawnAfterInteraction EnemySpawnType = "after_interaction"
	EnemySpawnAfterItemUse     EnemySpawnType = "after_item_use"
	EnemySpawnAutoOnEnterArea  EnemySpawnType = "auto_on_enter_area"
	EnemySpawnOverworldEnemies EnemySpawnType = "overworld_enemies"
)

// Vec3 is a position in the environment.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Distance returns the euclidean distance between two positions.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3) String() string { return fmt.Sprintf("<%.2f, %.2f, %.2f>", v.X, v.Y, v.Z) }

// DialogueChoiceType is the kind of prompt a dialogue choice answers.
type DialogueChoiceType string

const (
	DialogueChoiceYesNo DialogueChoiceType = "yes_no"
	DialogueChoiceList  DialogueChoiceType = "list"
)

// DialogueChoice is an expected prompt and the answer to give.
type DialogueChoice struct {
	Type   DialogueChoiceType
	Prompt string
	// Answer is the text to pick on list prompts.
	Answer string
	// Yes is the answer on yes/no prompts.
	Yes bool
	// DataID restricts the choice to prompts raised while targeting this object.
	DataID *uint32
}

// ShortcutSkipConditions controls when a teleport shortcut is not used.
type ShortcutSkipConditions struct {
	Never           bool
	InSameTerritory bool
}

// StepSkipConditions are predicates that, when any holds, skip the step.
type StepSkipConditions struct {
	// Never disables every other skip condition.
	Never              bool
	InTerritory        []uint16
	NotInTerritory     []uint16
	FlyingUnlocked     bool
	FlyingLocked       bool
	LocationUnlocked   *uint32
	LocationLocked     *uint32
	ItemInInventory    *uint32
	ItemNotInInventory *uint32
	QuestAccepted      *QuestID
	CompletionFlags    []*QuestWorkValue
}

// SkipConditions groups the skip predicates of a step.
type SkipConditions struct {
	Step               *StepSkipConditions
	TeleportShortcutIf *ShortcutSkipConditions
}

// GatheredItem is an item that must be gathered before the step runs.
type GatheredItem struct {
	ItemID       uint32
	Quantity     int
	NodeDataID   uint32
	NodePosition Vec3
	TerritoryID  uint16
}

// Step is one declarative unit of required progress.
type Step struct {
	Interaction InteractionType
	Comment     string

	DataID            *uint32
	Position          *Vec3
	StopDistance      *float64
	TerritoryID       uint16
	TargetTerritoryID *uint16
	Disabled          bool

	// Movement hints.
	Mount                  *bool
	Fly                    bool
	Land                   bool
	Sprint                 *bool
	DisableNavmesh         bool
	IgnoreDistanceToObject bool

	TeleportShortcut *uint32
	// Location is the attunement target of attune steps.
	Location *uint32

	ItemID       *uint32
	ItemCount    *int
	GroundTarget bool
	Emote        *uint32
	ChatMessage  string
	ActionID     *uint32

	EnemySpawnType            EnemySpawnType
	KillEnemyDataIDs          []uint32
	CombatDelaySecondsAtStart *float64
	DelaySecondsAtStart       *float64
	NpcWaitDistance           *float64

	CompletionFlags       []*QuestWorkValue
	DialogueChoices       []DialogueChoice
	SkipConditions        *SkipConditions
	RequiredGatheredItems []GatheredItem

	PickupQuestID *QuestID
	TurnInQuestID *QuestID
	NextQuestID   *QuestID
}

// StopDistanceOr returns the declared stop distance or the fallback.
func (s Step) StopDistanceOr(fallback float64) float64 {
	if s.StopDistance != nil {
		return *s.StopDistance
	}
	return fallback
}

// HasCompletionFlags returns true if the step declares a usable completion check.
func (s Step) HasCompletionFlags() bool {
	return HasCompletionFlags(s.CompletionFlags)
}
