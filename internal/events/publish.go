package events

import (
	"log/slog"
	"time"
)

// publishBackoff is the wait before the second send; each later wait doubles
const publishBackoff = 50 * time.Millisecond

// PublishWithRetry announces a confirmed board change, trying up to
// attempts sends. A nil client means no feed is configured and is not an
// error. The last send error is returned; collaborators then miss one
// live refresh, which their next reload repairs.
func PublishWithRetry(client EventPublisher, event Event, attempts int) error {
	if client == nil {
		return nil
	}
	attempts = max(attempts, 1)

	var err error
	wait := publishBackoff
	for n := 1; n <= attempts; n++ {
		if err = client.SendEvent(event); err == nil {
			if n > 1 {
				slog.Debug("board change announced", "event_type", event.Type, "board_id", event.BoardID, "attempt", n)
			}
			return nil
		}
		if n == attempts {
			break
		}
		slog.Debug("board change not announced, retrying", "board_id", event.BoardID, "attempt", n, "wait", wait, "error", err)
		time.Sleep(wait)
		wait *= 2
	}

	slog.Warn("collaborators will not see board change live",
		"event_type", event.Type, "board_id", event.BoardID, "attempts", attempts, "error", err)
	return err
}
