package cleanup

import (
	"context"

	"alm/internal/osal"
	"alm/internal/registry"
)

// sweepAndDeleteTask implements C8: repeatedly enumerate the task's owned
// OSAL objects and delete each, converging when a pass deletes nothing new
// (the monotone fixed-point loop spec.md §4.8 describes — later deletions
// can free resources that make earlier-blocked deletions succeed, so a
// single linear pass is not enough), then delete the task itself.
//
// Within a pass, failures are tracked by priority rather than by discovery
// order: child-task > queue > binsem > countsem > mutex > timer > anything
// else, matching the original's error-code precedence so the reported
// failure is always the most "structural" one outstanding.
func (c *Cleaner) sweepAndDeleteTask(ctx context.Context, taskID osal.TaskID) error {
	_, span := startSweepSpan(ctx, taskID)
	var worst error
	defer func() { endSweepSpan(span, worst) }()
	worstPriority := -1
	prevFound := int(^uint(0) >> 1) // INT_MAX: first pass never looks stuck by count alone
	stuck := false

	for {
		var objs []osal.ObjectID
		c.os.ForEachObject(taskID, func(o osal.ObjectID) {
			objs = append(objs, o)
		})
		found := len(objs)
		if found == 0 || stuck {
			if found > 0 && worst == nil {
				worst = registry.ErrAppCleanup // objects remain; nothing progressed, leak
			}
			break
		}

		deleted := 0
		for _, o := range objs {
			if err := c.os.DeleteObject(o); err != nil {
				if p := sweepPriority(o.Kind); p > worstPriority {
					worstPriority = p
					worst = sweepError(o.Kind)
				}
				continue
			}
			deleted++
		}

		stuck = deleted == 0 || found >= prevFound
		prevFound = found
	}

	// Task-delete failure overrides whatever the object sweep reported,
	// unconditionally: the task itself outliving its owned objects is the
	// more "structural" failure of the two.
	if err := c.os.TaskDelete(taskID); err != nil {
		worst = registry.ErrTaskDelete
	}
	return worst
}

func sweepPriority(k osal.Kind) int {
	switch k {
	case osal.KindChildTask:
		return 6
	case osal.KindQueue:
		return 5
	case osal.KindBinSem:
		return 4
	case osal.KindCountSem:
		return 3
	case osal.KindMutex:
		return 2
	case osal.KindTimer:
		return 1
	default:
		return 0
	}
}

func sweepError(k osal.Kind) error {
	switch k {
	case osal.KindChildTask:
		return registry.ErrChildTaskDelete
	case osal.KindQueue:
		return registry.ErrQueueDelete
	case osal.KindBinSem:
		return registry.ErrBinSemDelete
	case osal.KindCountSem:
		return registry.ErrCountSemDelete
	case osal.KindMutex:
		return registry.ErrMutexDelete
	case osal.KindTimer:
		return registry.ErrTimerDelete
	default:
		return registry.ErrAppCleanup
	}
}
