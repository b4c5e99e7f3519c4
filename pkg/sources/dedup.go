package sources

import (
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-linkrouter/pkg/intents"
	"golang.org/x/crypto/blake2b"
)

const DefaultDedupSize = 64

// seenSet remembers the most recent keys, forgetting the oldest once full.
type seenSet struct {
	mu    sync.Mutex
	limit int
	order []string
	keys  map[string]struct{}
}

func newSeenSet(limit int) *seenSet {
	if limit <= 0 {
		limit = DefaultDedupSize
	}
	return &seenSet{limit: limit, keys: make(map[string]struct{}, limit)}
}

// add records key and reports whether it was new.
func (s *seenSet) add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false
	}
	if len(s.order) >= s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.keys, oldest)
	}
	s.order = append(s.order, key)
	s.keys[key] = struct{}{}
	return true
}

func (s *seenSet) reset() {
	s.mu.Lock()
	s.order = nil
	s.keys = make(map[string]struct{}, s.limit)
	s.mu.Unlock()
}

// DedupKey identifies a notification. The platform identifier wins; without
// one the key is a BLAKE2b digest of the content.
func DedupKey(ev intents.NotificationEvent) string {
	if ev.Identifier != "" {
		return "id:" + ev.Identifier
	}
	// json.Marshal sorts map keys, so equal payloads hash equally.
	raw, err := json.Marshal(struct {
		Title   string         `json:"title"`
		Body    string         `json:"body"`
		Payload map[string]any `json:"payload"`
	}{ev.Title, ev.Body, ev.Payload})
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(raw)
	return "b2:" + hex.EncodeToString(sum[:16])
}
