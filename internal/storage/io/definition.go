package io

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/slok/questline/internal/model"
)

// Definition represents the YAML structure of a quest definition.
type Definition struct {
	ID        uint16     `yaml:"id"`
	Name      string     `yaml:"name"`
	Kind      string     `yaml:"kind"`
	Disabled  bool       `yaml:"disabled"`
	Comment   string     `yaml:"comment"`
	Sequences []Sequence `yaml:"sequences"`
}

// Sequence represents the YAML structure of a quest sequence.
type Sequence struct {
	Sequence uint8  `yaml:"sequence"`
	Steps    []Step `yaml:"steps"`
}

// Vec3 represents the YAML structure of a position.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Step represents the YAML structure of a quest step.
type Step struct {
	Interaction       string   `yaml:"interaction"`
	Comment           string   `yaml:"comment"`
	DataID            *uint32  `yaml:"data_id"`
	Position          *Vec3    `yaml:"position"`
	StopDistance      *float64 `yaml:"stop_distance"`
	TerritoryID       uint16   `yaml:"territory_id"`
	TargetTerritoryID *uint16  `yaml:"target_territory_id"`
	Disabled          bool     `yaml:"disabled"`

	Mount                  *bool `yaml:"mount"`
	Fly                    bool  `yaml:"fly"`
	Land                   bool  `yaml:"land"`
	Sprint                 *bool `yaml:"sprint"`
	DisableNavmesh         bool  `yaml:"disable_navmesh"`
	IgnoreDistanceToObject bool  `yaml:"ignore_distance_to_object"`

	TeleportShortcut *uint32 `yaml:"teleport_shortcut"`
	Location         *uint32 `yaml:"location"`

	ItemID       *uint32 `yaml:"item_id"`
	ItemCount    *int    `yaml:"item_count"`
	GroundTarget bool    `yaml:"ground_target"`
	Emote        *uint32 `yaml:"emote"`
	ChatMessage  string  `yaml:"chat_message"`
	ActionID     *uint32 `yaml:"action_id"`

	EnemySpawnType            string   `yaml:"enemy_spawn_type"`
	KillEnemyDataIDs          []uint32 `yaml:"kill_enemy_data_ids"`
	CombatDelaySecondsAtStart *float64 `yaml:"combat_delay_seconds_at_start"`
	DelaySecondsAtStart       *float64 `yaml:"delay_seconds_at_start"`
	NpcWaitDistance           *float64 `yaml:"npc_wait_distance"`

	CompletionFlags       []*QuestWorkValue `yaml:"completion_quest_variables_flags"`
	DialogueChoices       []DialogueChoice  `yaml:"dialogue_choices"`
	SkipConditions        *SkipConditions   `yaml:"skip_conditions"`
	RequiredGatheredItems []GatheredItem    `yaml:"required_gathered_items"`

	PickupQuestID *uint16 `yaml:"pickup_quest_id"`
	TurnInQuestID *uint16 `yaml:"turn_in_quest_id"`
	NextQuestID   *uint16 `yaml:"next_quest_id"`
}

// DialogueChoice represents the YAML structure of an expected prompt.
type DialogueChoice struct {
	Type   string  `yaml:"type"`
	Prompt string  `yaml:"prompt"`
	Answer string  `yaml:"answer"`
	Yes    *bool   `yaml:"yes"`
	DataID *uint32 `yaml:"data_id"`
}

// SkipConditions represents the YAML structure of the step skip conditions.
type SkipConditions struct {
	Step               *StepSkipConditions     `yaml:"step_if"`
	TeleportShortcutIf *ShortcutSkipConditions `yaml:"teleport_shortcut_if"`
}

// StepSkipConditions represents the YAML structure of the step level skip predicates.
type StepSkipConditions struct {
	Never              bool              `yaml:"never"`
	InTerritory        []uint16          `yaml:"in_territory"`
	NotInTerritory     []uint16          `yaml:"not_in_territory"`
	FlyingUnlocked     bool              `yaml:"flying_unlocked"`
	FlyingLocked       bool              `yaml:"flying_locked"`
	LocationUnlocked   *uint32           `yaml:"location_unlocked"`
	LocationLocked     *uint32           `yaml:"location_locked"`
	ItemInInventory    *uint32           `yaml:"item_in_inventory"`
	ItemNotInInventory *uint32           `yaml:"item_not_in_inventory"`
	QuestAccepted      *uint16           `yaml:"quest_accepted"`
	CompletionFlags    []*QuestWorkValue `yaml:"completion_quest_variables_flags"`
}

// ShortcutSkipConditions represents the YAML structure of the teleport shortcut skip predicates.
type ShortcutSkipConditions struct {
	Never           bool `yaml:"never"`
	InSameTerritory bool `yaml:"in_same_territory"`
}

// GatheredItem represents the YAML structure of a required gathered item.
type GatheredItem struct {
	ItemID       uint32 `yaml:"item_id"`
	Quantity     int    `yaml:"quantity"`
	NodeDataID   uint32 `yaml:"node_data_id"`
	NodePosition Vec3   `yaml:"node_position"`
	TerritoryID  uint16 `yaml:"territory_id"`
}

// QuestWorkValue is an expected progress variable. In YAML it's either a plain
// byte (`16`) or its nibbles (`{high: 1}`), a missing nibble matches anything.
type QuestWorkValue struct {
	High *uint8 `yaml:"high"`
	Low  *uint8 `yaml:"low"`
}

// UnmarshalYAML satisfies yaml.Unmarshaler.
func (v *QuestWorkValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var b uint8
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("quest work value must be a byte or a {high, low} map: %w", err)
		}
		high, low := b>>4, b&0x0F
		v.High, v.Low = &high, &low
		return nil
	}

	type plain QuestWorkValue
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.High != nil && *p.High > 0x0F {
		return fmt.Errorf("high nibble out of range: %d", *p.High)
	}
	if p.Low != nil && *p.Low > 0x0F {
		return fmt.Errorf("low nibble out of range: %d", *p.Low)
	}
	*v = QuestWorkValue(p)
	return nil
}

func (d Definition) validate() error {
	switch model.DefinitionKind(d.Kind) {
	case "", model.DefinitionKindQuest, model.DefinitionKindLeve:
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	if len(d.Sequences) == 0 {
		return fmt.Errorf("at least one sequence is required")
	}

	for _, seq := range d.Sequences {
		for i, s := range seq.Steps {
			if !model.InteractionType(s.Interaction).Valid() {
				return fmt.Errorf("sequence %d step %d: unknown interaction %q", seq.Sequence, i, s.Interaction)
			}
			for _, dc := range s.DialogueChoices {
				switch model.DialogueChoiceType(dc.Type) {
				case model.DialogueChoiceYesNo, model.DialogueChoiceList:
				default:
					return fmt.Errorf("sequence %d step %d: unknown dialogue choice type %q", seq.Sequence, i, dc.Type)
				}
			}
		}
	}
	return nil
}

func (d Definition) toModel() model.Definition {
	kind := model.DefinitionKind(d.Kind)
	if kind == "" {
		kind = model.DefinitionKindQuest
	}

	def := model.Definition{
		ID:        model.QuestID(d.ID),
		Name:      d.Name,
		Kind:      kind,
		Disabled:  d.Disabled,
		Comment:   d.Comment,
		Sequences: make([]model.Sequence, 0, len(d.Sequences)),
	}
	for _, seq := range d.Sequences {
		ms := model.Sequence{ID: seq.Sequence, Steps: make([]model.Step, 0, len(seq.Steps))}
		for _, s := range seq.Steps {
			ms.Steps = append(ms.Steps, s.toModel())
		}
		def.Sequences = append(def.Sequences, ms)
	}

	return def
}

func (s Step) toModel() model.Step {
	st := model.Step{
		Interaction:               model.InteractionType(s.Interaction),
		Comment:                   s.Comment,
		DataID:                    s.DataID,
		Position:                  s.Position.toModel(),
		StopDistance:              s.StopDistance,
		TerritoryID:               s.TerritoryID,
		TargetTerritoryID:         s.TargetTerritoryID,
		Disabled:                  s.Disabled,
		Mount:                     s.Mount,
		Fly:                       s.Fly,
		Land:                      s.Land,
		Sprint:                    s.Sprint,
		DisableNavmesh:            s.DisableNavmesh,
		IgnoreDistanceToObject:    s.IgnoreDistanceToObject,
		TeleportShortcut:          s.TeleportShortcut,
		Location:                  s.Location,
		ItemID:                    s.ItemID,
		ItemCount:                 s.ItemCount,
		GroundTarget:              s.GroundTarget,
		Emote:                     s.Emote,
		ChatMessage:               s.ChatMessage,
		ActionID:                  s.ActionID,
		EnemySpawnType:            model.EnemySpawnType(s.EnemySpawnType),
		KillEnemyDataIDs:          s.KillEnemyDataIDs,
		CombatDelaySecondsAtStart: s.CombatDelaySecondsAtStart,
		DelaySecondsAtStart:       s.DelaySecondsAtStart,
		NpcWaitDistance:           s.NpcWaitDistance,
		CompletionFlags:           questWorkValues(s.CompletionFlags),
		PickupQuestID:             questID(s.PickupQuestID),
		TurnInQuestID:             questID(s.TurnInQuestID),
		NextQuestID:               questID(s.NextQuestID),
	}

	for _, dc := range s.DialogueChoices {
		st.DialogueChoices = append(st.DialogueChoices, model.DialogueChoice{
			Type:   model.DialogueChoiceType(dc.Type),
			Prompt: dc.Prompt,
			Answer: dc.Answer,
			Yes:    dc.Yes == nil || *dc.Yes,
			DataID: dc.DataID,
		})
	}

	for _, gi := range s.RequiredGatheredItems {
		st.RequiredGatheredItems = append(st.RequiredGatheredItems, model.GatheredItem{
			ItemID:       gi.ItemID,
			Quantity:     gi.Quantity,
			NodeDataID:   gi.NodeDataID,
			NodePosition: model.Vec3(gi.NodePosition),
			TerritoryID:  gi.TerritoryID,
		})
	}

	if s.SkipConditions != nil {
		sc := &model.SkipConditions{}
		if s.SkipConditions.TeleportShortcutIf != nil {
			sc.TeleportShortcutIf = &model.ShortcutSkipConditions{
				Never:           s.SkipConditions.TeleportShortcutIf.Never,
				InSameTerritory: s.SkipConditions.TeleportShortcutIf.InSameTerritory,
			}
		}
		if c := s.SkipConditions.Step; c != nil {
			sc.Step = &model.StepSkipConditions{
				Never:              c.Never,
				InTerritory:        c.InTerritory,
				NotInTerritory:     c.NotInTerritory,
				FlyingUnlocked:     c.FlyingUnlocked,
				FlyingLocked:       c.FlyingLocked,
				LocationUnlocked:   c.LocationUnlocked,
				LocationLocked:     c.LocationLocked,
				ItemInInventory:    c.ItemInInventory,
				ItemNotInInventory: c.ItemNotInInventory,
				QuestAccepted:      questID(c.QuestAccepted),
				CompletionFlags:    questWorkValues(c.CompletionFlags),
			}
		}
		st.SkipConditions = sc
	}

	return st
}

func (v *Vec3) toModel() *model.Vec3 {
	if v == nil {
		return nil
	}
	mv := model.Vec3(*v)
	return &mv
}

func questID(id *uint16) *model.QuestID {
	if id == nil {
		return nil
	}
	q := model.QuestID(*id)
	return &q
}

func questWorkValues(vs []*QuestWorkValue) []*model.QuestWorkValue {
	if vs == nil {
		return nil
	}
	res := make([]*model.QuestWorkValue, 0, len(vs))
	for _, v := range vs {
		if v == nil {
			res = append(res, nil)
			continue
		}
		res = append(res, &model.QuestWorkValue{High: v.High, Low: v.Low})
	}
	return res
}
