package events

import (
	"sync"
	"time"

	"mcpdeck/pkg/logging"

	"github.com/google/uuid"
)

const defaultHistorySize = 200

// Recorder keeps a bounded history of lifecycle events and fans them out to
// subscribers. It is safe for concurrent use.
type Recorder struct {
	templates *MessageTemplateEngine
	now       func() time.Time

	mu          sync.Mutex
	history     []Event
	limit       int
	subscribers map[int]chan Event
	nextSubID   int
	journal     *Journal
}

// NewRecorder creates a recorder that keeps the last limit events.
// A non-positive limit selects the default.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return &Recorder{
		templates:   NewMessageTemplateEngine(),
		now:         time.Now,
		limit:       limit,
		subscribers: make(map[int]chan Event),
	}
}

// SetJournal makes the recorder append every future event to j.
func (r *Recorder) SetJournal(j *Journal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = j
}

// NewOperationID returns an identifier shared by all events of one
// lifecycle operation.
func NewOperationID() string {
	return uuid.NewString()
}

// Record renders and stores an event, logs it, and delivers it to
// subscribers. Slow subscribers miss events rather than block the caller.
func (r *Recorder) Record(reason EventReason, data EventData) Event {
	ev := Event{
		ID:          uuid.NewString(),
		Time:        r.now(),
		Type:        getEventType(reason),
		Reason:      reason,
		Name:        data.Name,
		OperationID: data.OperationID,
		Message:     r.templates.Render(reason, data),
		Duration:    data.Duration,
	}

	if ev.Type == EventTypeWarning {
		logging.Warn("Events", "%s: %s", reason, ev.Message)
	} else {
		logging.Debug("Events", "%s: %s", reason, ev.Message)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, ev)
	if r.journal != nil {
		if err := r.journal.Append(ev); err != nil {
			logging.Warn("Events", "Failed to append event to journal: %v", err)
		}
	}
	if over := len(r.history) - r.limit; over > 0 {
		r.history = append([]Event(nil), r.history[over:]...)
	}
	for id, ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			logging.Debug("Events", "Dropping event %s for slow subscriber %d", ev.ID, id)
		}
	}
	return ev
}

// History returns recorded events, oldest first. When name is non-empty
// only that server's events are returned.
func (r *Recorder) History(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, 0, len(r.history))
	for _, ev := range r.history {
		if name == "" || ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribe returns a channel receiving future events and a function that
// cancels the subscription and closes the channel.
func (r *Recorder) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}
