package controller

import (
	"context"
	"log"

	"github.com/stim-control/scc/internal/command"
)

// runExecutor is the single queue drain loop. Commands execute one at a
// time in queue order; no failure stops the loop, and cancellation takes
// effect between commands so in-flight work always completes.
func (c *Controller) runExecutor(ctx context.Context) {
	defer c.wg.Done()

	for {
		cmd, err := c.queue.Dequeue(ctx)
		if err != nil {
			log.Printf("controller: executor stopping: %v", err)
			return
		}
		c.executeCommand(cmd)
	}
}

// executeCommand re-checks runtime enable flags and dispatches by kind.
// Enable flags are consulted at execution time, not enqueue time, so
// disabling a category also silences commands already queued.
func (c *Controller) executeCommand(cmd command.Command) {
	if !c.settings.CategoryEnabled(cmd.Category) {
		log.Printf("controller: dropping %s command from %s, category disabled", cmd.Category, cmd.SourceID)
		c.auditCommand(cmd, "DROPPED_DISABLED", nil)
		return
	}
	if cmd.Category == command.CategoryInteraction && !c.InteractionEnabled(cmd.Channel) {
		log.Printf("controller: dropping interaction command for channel %s, interaction mode off", cmd.Channel)
		c.auditCommand(cmd, "DROPPED_DISABLED", nil)
		return
	}

	// The write gets its own context: executor cancellation must not abort
	// a command that already left the queue.
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch cmd.Kind {
	case command.KindSetStrength:
		switch cmd.Op {
		case command.OpSetTo:
			err = c.SetStrength(ctx, cmd.Channel, cmd.Value)
		case command.OpIncrease, command.OpDecrease:
			err = c.AdjustStrength(ctx, cmd.Channel, cmd.Delta())
		}
	case command.KindSetPulseMode:
		err = c.SetPulseMode(ctx, cmd.Channel, cmd.Value)
	}

	outcome := "SUCCESS"
	if err != nil {
		outcome = "ERROR"
		log.Printf("controller: command from %s failed: %v", cmd.SourceID, err)
	}
	c.auditCommand(cmd, outcome, err)
}
