package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// StringList stores []string as JSON.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value any) error {
	if s == nil {
		return errors.New("StringList: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	default:
		return fmt.Errorf("StringList: unsupported type %T", value)
	}
}

// Route outcomes recorded in history.
const (
	OutcomeDelivered  = "delivered"
	OutcomeFailed     = "failed"
	OutcomeDispatched = "dispatched"
	OutcomeBuffered   = "buffered"
	OutcomeEvicted    = "evicted"
	OutcomeDropped    = "dropped"
	OutcomeObserved   = "observed"
)

// RouteRecord is one step in the life of a routed event: its resolution and
// what the registry did with it. A delivery can produce several records
// (buffered, then delivered).
type RouteRecord struct {
	bun.BaseModel `bun:"table:route_records"`
	RecordMeta

	DeliveryID uuid.UUID `bun:",type:uuid,notnull" json:"delivery_id"`
	Source     string    `bun:",nullzero,notnull" json:"source"`
	Origin     string    `bun:",nullzero" json:"origin"`
	Kind       string    `bun:",nullzero,notnull" json:"kind"`
	Outcome    string    `bun:",nullzero,notnull" json:"outcome"`
	Screen     string    `bun:",nullzero" json:"screen,omitempty"`
	// Target is the masked URL or the notification identifier.
	Target    string     `bun:",nullzero" json:"target,omitempty"`
	ParamKeys StringList `bun:"type:jsonb,nullzero" json:"param_keys,omitempty"`
	Summary   JSONMap    `bun:"type:jsonb,nullzero" json:"summary,omitempty"`
	Preview   string     `bun:",nullzero" json:"preview,omitempty"`
	Error     string     `bun:",nullzero" json:"error,omitempty"`
}
