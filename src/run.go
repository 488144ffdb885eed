package cwkey

import (
	"context"
	"time"
)

// DEFAULT_POLL_INTERVAL is fine enough for anything up to about 60 WPM.
const DEFAULT_POLL_INTERVAL = time.Millisecond

/*-------------------------------------------------------------------
 *
 * Name:        Run
 *
 * Purpose:    	Stand in for a main loop: Tick the engine until it
 *		is done.
 *
 * Returns:	nil when the transmission finished, or the context's
 *		error.  Either way the outputs are released.
 *
 *--------------------------------------------------------------------*/

func Run(ctx context.Context, e *Engine, interval time.Duration) error {
	if interval <= 0 {
		interval = DEFAULT_POLL_INTERVAL
	}

	var ticker = time.NewTicker(interval)
	defer ticker.Stop()

	for {
		e.Tick()

		if e.IsDone() {
			return nil
		}

		select {
		case <-ctx.Done():
			e.Release()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
