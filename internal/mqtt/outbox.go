package mqtt

import "log"

// pendingMsg is a serialized MQTT message waiting for the broker.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds transitions and lifecycle events while the broker is
// unreachable. When full it evicts the oldest non-retained message, so a
// retained STARTUP or SHUTDOWN outlives a burst of transitions.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs     []pendingMsg
	capacity int
	dropped  int // evictions since the last drain
	logger   *log.Logger
}

func newOutbox(capacity int, logger *log.Logger) *outbox {
	return &outbox{
		msgs:     make([]pendingMsg, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

func (o *outbox) push(msg pendingMsg) {
	if len(o.msgs) == o.capacity {
		if o.dropped == 0 {
			o.logger.Printf("mqtt: outbox full (%d messages), dropping oldest", o.capacity)
		}
		o.dropped++
		victim := 0
		for i, m := range o.msgs {
			if !m.retained {
				victim = i
				break
			}
		}
		o.msgs = append(o.msgs[:victim], o.msgs[victim+1:]...)
	}
	o.msgs = append(o.msgs, msg)
}

// drain returns the waiting messages oldest first, with the number evicted
// since the previous drain, and empties the outbox.
func (o *outbox) drain() ([]pendingMsg, int) {
	msgs, dropped := o.msgs, o.dropped
	if len(msgs) == 0 {
		msgs = nil
	}
	o.msgs = make([]pendingMsg, 0, o.capacity)
	o.dropped = 0
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
