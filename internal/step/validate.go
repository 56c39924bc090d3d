package step

import (
	"fmt"

	"github.com/slok/questline/internal/model"
)

// ValidateStep checks the step declares the fields its interaction requires.
// The returned error wraps model.ErrDataFault.
func ValidateStep(s model.Step) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s step requires %s", model.ErrDataFault, s.Interaction, field)
	}

	if !s.Interaction.Valid() {
		return fmt.Errorf("%w: unknown interaction %q", model.ErrDataFault, s.Interaction)
	}

	switch s.Interaction {
	case model.InteractionInteract:
		if s.DataID == nil {
			return missing("data id")
		}
	case model.InteractionWalkTo:
		if s.Position == nil {
			return missing("position")
		}
	case model.InteractionAttuneAetheryte, model.InteractionAttuneAethernetShard, model.InteractionAttuneAetherCurrent:
		if s.Location == nil {
			return missing("location")
		}
		if s.DataID == nil {
			return missing("data id")
		}
	case model.InteractionUseItem, model.InteractionEquipItem:
		if s.ItemID == nil {
			return missing("item id")
		}
	case model.InteractionSay:
		if s.ChatMessage == "" {
			return missing("chat message")
		}
	case model.InteractionEmote:
		if s.Emote == nil {
			return missing("emote")
		}
	case model.InteractionAction:
		if s.ActionID == nil {
			return missing("action id")
		}
	case model.InteractionWaitForObjectAtPosition:
		if s.DataID == nil {
			return missing("data id")
		}
		if s.Position == nil {
			return missing("position")
		}
	case model.InteractionCraft:
		if s.ItemID == nil {
			return missing("item id")
		}
		if s.ItemCount == nil || *s.ItemCount <= 0 {
			return missing("a positive item count")
		}
	case model.InteractionCombat:
		switch s.EnemySpawnType {
		case model.EnemySpawnAfterInteraction:
			if s.DataID == nil {
				return missing("data id")
			}
		case model.EnemySpawnAfterItemUse:
			if s.ItemID == nil {
				return missing("item id")
			}
		case model.EnemySpawnAutoOnEnterArea, model.EnemySpawnOverworldEnemies:
		default:
			return missing("enemy spawn type")
		}
	case model.InteractionGather:
		if len(s.RequiredGatheredItems) == 0 {
			return missing("gathered items")
		}
	}

	for i, item := range s.RequiredGatheredItems {
		if item.ItemID == 0 || item.Quantity <= 0 {
			return fmt.Errorf("%w: gathered item %d requires item id and quantity", model.ErrDataFault, i)
		}
	}

	if len(s.CompletionFlags) != 0 && len(s.CompletionFlags) != model.CompletionFlagSlots {
		return fmt.Errorf("%w: completion flags require %d slots, got %d", model.ErrDataFault, model.CompletionFlagSlots, len(s.CompletionFlags))
	}

	return nil
}
