package usersink

import (
	"context"
	"time"

	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// ObjectType tags routing records in the go-users activity feed.
const ObjectType = "route_delivery"

// Hook adapts routing activity into go-users ActivitySink records.
type Hook struct {
	Sink types.ActivitySink
}

// Notify maps the event into a types.ActivityRecord and forwards it. Sink
// errors are ignored; activity is best effort.
func (h Hook) Notify(ctx context.Context, evt activity.Event) {
	if h.Sink == nil {
		return
	}
	record := types.ActivityRecord{
		ID:         uuid.New(),
		UserID:     parseUUID(evt.UserID),
		ActorID:    parseUUID(evt.ActorID),
		Verb:       evt.Verb,
		ObjectType: ObjectType,
		ObjectID:   evt.DeliveryID,
		Channel:    evt.Source,
		TenantID:   parseUUID(evt.TenantID),
		Data:       buildData(evt),
		OccurredAt: evt.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}
	_ = h.Sink.Log(ctx, record)
}

func buildData(evt activity.Event) map[string]any {
	data := activity.CloneMetadata(evt.Metadata)
	if data == nil {
		data = make(map[string]any, 3)
	}
	if evt.Kind != "" {
		data["kind"] = evt.Kind
	}
	if evt.Origin != "" {
		data["origin"] = evt.Origin
	}
	if evt.Screen != "" {
		data["screen"] = evt.Screen
	}
	return data
}

func parseUUID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
