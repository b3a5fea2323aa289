package mqtt

import "log"

// bufferedMsg is a serialized message held while the broker is unreachable.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue keeps the most recent messages published while disconnected.
// When full, the oldest message is discarded and counted.
// Not safe for concurrent use; caller must synchronize.
type offlineQueue struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int
}

func newOfflineQueue(capacity int) *offlineQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &offlineQueue{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (q *offlineQueue) push(msg bufferedMsg) {
	if len(q.msgs) == q.capacity {
		if q.dropped == 0 {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", q.capacity)
		}
		copy(q.msgs, q.msgs[1:])
		q.msgs = q.msgs[:len(q.msgs)-1]
		q.dropped++
	}
	q.msgs = append(q.msgs, msg)
}

// drain returns the queued messages oldest first and the number discarded
// since the previous drain, then empties the queue.
func (q *offlineQueue) drain() ([]bufferedMsg, int) {
	dropped := q.dropped
	q.dropped = 0
	if len(q.msgs) == 0 {
		return nil, dropped
	}

	out := make([]bufferedMsg, len(q.msgs))
	copy(out, q.msgs)
	q.msgs = q.msgs[:0]
	return out, dropped
}

func (q *offlineQueue) len() int {
	return len(q.msgs)
}
