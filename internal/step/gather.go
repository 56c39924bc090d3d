package step

import (
	"fmt"
	"time"

	"github.com/slok/questline/internal/capability"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/task"
)

// gatheringTasks gathers the items the step requires before it runs.
func (c *Compiler) gatheringTasks(sc *stepContext) ([]task.Task, error) {
	env := c.svc.Environment
	var tasks []task.Task
	for _, item := range sc.step.RequiredGatheredItems {
		if env.ItemCount(item.ItemID) >= item.Quantity {
			continue
		}

		if item.TerritoryID != 0 && env.TerritoryID() != item.TerritoryID {
			tasks = append(tasks, c.waitTerritoryTask(item.TerritoryID))
		}
		if c.nodeDistance(item) > c.cfg.StopDistance {
			dataID := item.NodeDataID
			tasks = append(tasks, c.moveTask(item.NodePosition, capability.MovementOptions{
				DataID:       &dataID,
				StopDistance: c.cfg.StopDistance,
				Sprint:       true,
			}))
		}
		tasks = append(tasks,
			c.interactTask(item.NodeDataID),
			&gatherTask{
				gathering: c.svc.Gathering,
				env:       c.svc.Environment,
				timing:    c.timing(),
				request:   capability.GatheringRequest{ItemID: item.ItemID, Quantity: item.Quantity},
				node: capability.GatheringNode{
					DataID:      item.NodeDataID,
					Position:    item.NodePosition,
					TerritoryID: item.TerritoryID,
				},
			},
		)
	}
	return tasks, nil
}

func (c *Compiler) nodeDistance(item model.GatheredItem) float64 {
	env := c.svc.Environment
	if item.TerritoryID != 0 && env.TerritoryID() != item.TerritoryID {
		return inf
	}
	pos, ok := env.Position()
	if !ok {
		return inf
	}
	return pos.Distance(item.NodePosition)
}

// gatherTask gathers from the open node until the requested items are in the
// inventory or the node is gone. Gathers are fired at most once per retry
// interval.
type gatherTask struct {
	gathering capability.Gathering
	env       capability.Environment
	request   capability.GatheringRequest
	node      capability.GatheringNode
	timing    timing

	gatheredAt time.Time
}

func (t *gatherTask) Start() (bool, error) {
	t.gathering.SetRequest(t.request)
	return true, nil
}

func (t *gatherTask) Update() (task.Result, error) {
	if t.gathering.HasRequestedItems() {
		t.gathering.Close()
		return task.TaskComplete, nil
	}
	if t.gathering.HasNodeDisappeared(t.node) {
		return task.TaskComplete, nil
	}
	if t.env.FreeInventorySlots() == 0 {
		return task.StillRunning, fmt.Errorf("%w: inventory is full", model.ErrExecutionFault)
	}
	now := t.timing.now()
	if !t.gatheredAt.IsZero() && now.Sub(t.gatheredAt) < t.timing.retry {
		return task.StillRunning, nil
	}
	t.gathering.GatherItem(t.request.ItemID)
	t.gatheredAt = now
	return task.StillRunning, nil
}

func (t *gatherTask) String() string {
	return fmt.Sprintf("Gather(%d, %d)", t.request.ItemID, t.request.Quantity)
}
