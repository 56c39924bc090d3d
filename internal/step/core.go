package step

import (
	"fmt"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

func noCore(*Compiler, *stepContext) ([]task.Task, error) { return nil, nil }

func interactIfTargeted(c *Compiler, sc *stepContext) ([]task.Task, error) {
	if sc.step.DataID == nil {
		return nil, nil
	}
	return []task.Task{c.interactTask(*sc.step.DataID)}, nil
}

// coreFactories is the dispatch table from interaction kind to the factory of
// the task implementing it.
func coreFactories() map[model.InteractionType]coreFactory {
	return map[model.InteractionType]coreFactory{
		model.InteractionNone:                    noCore,
		model.InteractionWalkTo:                  noCore,
		model.InteractionGather:                  noCore,
		model.InteractionDuty:                    noCore,
		model.InteractionWaitForManualProgress:   noCore,
		model.InteractionInstruction:             noCore,
		model.InteractionWaitForObjectAtPosition: noCore,
		model.InteractionInteract:                interactIfTargeted,
		model.InteractionAcceptLeve:              interactIfTargeted,
		model.InteractionCompleteLeve:            interactIfTargeted,
		model.InteractionSinglePlayerDuty:        interactIfTargeted,
		model.InteractionAcceptQuest:             (*Compiler).acceptQuestCore,
		model.InteractionCompleteQuest:           (*Compiler).completeQuestCore,
		model.InteractionUseItem:                 (*Compiler).useItemCore,
		model.InteractionAttuneAetheryte:         (*Compiler).attuneCore,
		model.InteractionAttuneAethernetShard:    (*Compiler).attuneCore,
		model.InteractionAttuneAetherCurrent:     (*Compiler).attuneCore,
		model.InteractionCombat:                  (*Compiler).combatCore,
		model.InteractionEquipItem:               (*Compiler).equipCore,
		model.InteractionSay:                     (*Compiler).sayCore,
		model.InteractionEmote:                   (*Compiler).emoteCore,
		model.InteractionAction:                  (*Compiler).actionCore,
		model.InteractionCraft:                   (*Compiler).craftCore,
		model.InteractionInitiateLeve:            (*Compiler).initiateLeveCore,
	}
}

func pickupQuest(sc *stepContext) model.QuestID {
	if sc.step.PickupQuestID != nil {
		return *sc.step.PickupQuestID
	}
	return sc.def.ID
}

func turnInQuest(sc *stepContext) model.QuestID {
	if sc.step.TurnInQuestID != nil {
		return *sc.step.TurnInQuestID
	}
	return sc.def.ID
}

func (c *Compiler) acceptQuestCore(sc *stepContext) ([]task.Task, error) {
	if c.svc.Environment.IsQuestAccepted(pickupQuest(sc)) {
		return nil, nil
	}
	return interactIfTargeted(c, sc)
}

func (c *Compiler) completeQuestCore(sc *stepContext) ([]task.Task, error) {
	if c.svc.Environment.IsQuestComplete(turnInQuest(sc)) {
		return nil, nil
	}
	return interactIfTargeted(c, sc)
}

func (c *Compiler) useItemCore(sc *stepContext) ([]task.Task, error) {
	return []task.Task{c.useItemTask(sc.step)}, nil
}

func (c *Compiler) attuneCore(sc *stepContext) ([]task.Task, error) {
	location, dataID := *sc.step.Location, *sc.step.DataID
	if c.svc.Teleport.IsUnlocked(location) {
		return nil, nil
	}

	name := fmt.Sprintf("Attune(%d)", location)
	return []task.Task{c.newAction(name,
		func() bool { return c.svc.Interaction.InteractWith(dataID) },
		func() bool { return c.svc.Teleport.IsUnlocked(location) },
	)}, nil
}

func (c *Compiler) equipCore(sc *stepContext) ([]task.Task, error) {
	itemID := *sc.step.ItemID
	if c.svc.Environment.IsEquipped(itemID) {
		return nil, nil
	}

	action := c.newAction(fmt.Sprintf("Equip(%d)", itemID),
		func() bool { return c.svc.Interaction.Equip(itemID) },
		func() bool { return c.svc.Environment.IsEquipped(itemID) },
	)
	return []task.Task{&equipTask{actionTask: action, messages: c.cfg.Messages}}, nil
}

func (c *Compiler) sayCore(sc *stepContext) ([]task.Task, error) {
	msg := sc.step.ChatMessage
	return []task.Task{c.newAction(fmt.Sprintf("Say(%q)", msg), func() bool {
		return c.svc.Interaction.Say(msg)
	}, nil)}, nil
}

func (c *Compiler) emoteCore(sc *stepContext) ([]task.Task, error) {
	emote, target := *sc.step.Emote, sc.step.DataID
	return []task.Task{c.newAction(fmt.Sprintf("Emote(%d)", emote), func() bool {
		return c.svc.Interaction.Emote(emote, target)
	}, nil)}, nil
}

func (c *Compiler) actionCore(sc *stepContext) ([]task.Task, error) {
	action, target := *sc.step.ActionID, sc.step.DataID
	return []task.Task{c.newAction(fmt.Sprintf("Action(%d)", action), func() bool {
		return c.svc.Interaction.UseAction(action, target)
	}, nil)}, nil
}

func (c *Compiler) craftCore(sc *stepContext) ([]task.Task, error) {
	itemID, quantity := *sc.step.ItemID, *sc.step.ItemCount
	if c.svc.Environment.ItemCount(itemID) >= quantity {
		return nil, nil
	}
	return []task.Task{&craftTask{
		interaction: c.svc.Interaction,
		env:         c.svc.Environment,
		itemID:      itemID,
		quantity:    quantity,
	}}, nil
}

func waitCondition(env capability.Environment, cond capability.Condition, present bool) task.Task {
	name := fmt.Sprintf("WaitCondition(%s)", cond)
	if !present {
		name = fmt.Sprintf("WaitConditionGone(%s)", cond)
	}
	return task.NewWaitCondition(name, func() bool { return env.HasCondition(cond) == present })
}
