package session

import (
	"log/slog"
)

// checkBargeIn interrupts an in-flight Response Task the instant the caller
// starts talking over it. It is called on every inbound media frame, so it
// must be cheap; the Response Task's own cleanup runs on its own goroutine,
// and cancelResponse blocks here only until that cleanup finishes.
func (c *Call) checkBargeIn(isSpeech bool) {
	if !isSpeech {
		return
	}

	c.mu.Lock()
	if !c.isResponding || c.interrupted {
		c.mu.Unlock()
		return
	}
	c.interrupted = true
	c.mu.Unlock()

	c.cancelResponse(true)
	c.sender.Clear()

	if err := c.transport.SendClear(); err != nil {
		slog.Warn("send_clear_failed", "call_id", c.opts.CallID, "error", err)
	}

	c.setResponding(false)
	c.detect.Reset()

	c.mu.Lock()
	c.interrupted = false
	c.mu.Unlock()
}
