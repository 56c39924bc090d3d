package fake

import (
	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
)

// Script populates the world so the definition can run against it. Objects are
// placed where the steps expect them, and each step reacts by moving the quest
// progress the way the step expects.
func (w *World) Script(def model.Definition) {
	origin, _ := w.Position()

	for si, seq := range def.Sequences {
		next := seq.ID
		if si+1 < len(def.Sequences) {
			next = def.Sequences[si+1].ID
		}

		for i, s := range seq.Steps {
			w.scriptObjects(s, origin)

			trigger, ok := stepTrigger(def, s)
			if !ok {
				continue
			}

			work := model.QuestWork{Sequence: seq.ID}
			switch {
			case s.HasCompletionFlags():
				work.Variables = flagValues(s.CompletionFlags)
			case i == len(seq.Steps)-1:
				work.Sequence = next
			}

			e := Effect{QuestID: def.ID, Work: &work, Territory: s.TargetTerritoryID}
			switch s.Interaction {
			case model.InteractionAcceptQuest, model.InteractionAcceptLeve:
				e.Accept = true
				if s.PickupQuestID != nil {
					e.QuestID = *s.PickupQuestID
				}
			case model.InteractionCompleteQuest, model.InteractionCompleteLeve:
				e.Complete = true
				if s.TurnInQuestID != nil {
					e.QuestID = *s.TurnInQuestID
				}
			}
			w.React(trigger, e)
		}
	}
}

func (w *World) scriptObjects(s model.Step, origin model.Vec3) {
	pos := origin
	if s.Position != nil {
		pos = *s.Position
	}
	territory := s.TerritoryID
	if territory == 0 {
		territory = w.TerritoryID()
	}

	if s.DataID != nil {
		w.PlaceObject(Object{DataID: *s.DataID, TerritoryID: territory, Position: pos})
	}
	if s.Location != nil && s.DataID != nil {
		w.AddLocation(capability.Location{ID: *s.Location, DataID: *s.DataID, TerritoryID: territory, Position: pos}, false)
	}
	if s.TeleportShortcut != nil {
		if _, ok := w.Location(*s.TeleportShortcut); !ok {
			w.AddLocation(capability.Location{ID: *s.TeleportShortcut, TerritoryID: territory, Position: pos}, true)
		}
	}
	if s.ItemID != nil && (s.Interaction == model.InteractionUseItem || s.Interaction == model.InteractionEquipItem) {
		if w.ItemCount(*s.ItemID) == 0 {
			w.AddItem(*s.ItemID, 1)
		}
	}
	for _, item := range s.RequiredGatheredItems {
		w.PlaceObject(Object{DataID: item.NodeDataID, TerritoryID: item.TerritoryID, Position: item.NodePosition, Node: true})
	}
}

func stepTrigger(def model.Definition, s model.Step) (Trigger, bool) {
	switch s.Interaction {
	case model.InteractionUseItem:
		return Trigger{Kind: TriggerUseItem, ID: *s.ItemID}, true
	case model.InteractionAction:
		return Trigger{Kind: TriggerAction, ID: *s.ActionID}, true
	case model.InteractionEmote:
		return Trigger{Kind: TriggerEmote, ID: *s.Emote}, true
	case model.InteractionSay:
		return Trigger{Kind: TriggerSay}, true
	case model.InteractionCombat:
		return Trigger{Kind: TriggerCombat, ID: uint32(def.ID)}, true
	case model.InteractionInteract, model.InteractionAcceptQuest, model.InteractionCompleteQuest,
		model.InteractionAcceptLeve, model.InteractionCompleteLeve, model.InteractionSinglePlayerDuty:
		if s.DataID == nil {
			return Trigger{}, false
		}
		return Trigger{Kind: TriggerInteract, ID: *s.DataID}, true
	}
	return Trigger{}, false
}

func flagValues(flags []*model.QuestWorkValue) [model.CompletionFlagSlots]uint8 {
	var vars [model.CompletionFlagSlots]uint8
	for i, f := range flags {
		if f == nil || i >= len(vars) {
			continue
		}
		var v uint8
		if f.High != nil {
			v |= *f.High << 4
		}
		if f.Low != nil {
			v |= *f.Low
		}
		vars[i] = v
	}
	return vars
}
