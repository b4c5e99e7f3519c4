package router

import (
	"context"
	"sort"

	"github.com/goliatone/go-linkrouter/internal/dispatcher"
	"github.com/goliatone/go-linkrouter/internal/redact"
	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/google/uuid"
)

// recorder writes routing outcomes to history and activity hooks. Failures
// are logged and never reach the pipeline.
type recorder struct {
	history  store.RouteRecordRepository
	activity activity.Hook
	logger   logger.Logger
}

func newRecorder(history store.RouteRecordRepository, hook activity.Hook, lgr logger.Logger) *recorder {
	if hook == nil {
		hook = activity.Nop{}
	}
	return &recorder{history: history, activity: hook, logger: lgr}
}

// Settled implements dispatcher.Observer.
func (r *recorder) Settled(ctx context.Context, d dispatcher.Delivery, outcome dispatcher.Outcome, err error) {
	rec := recordFor(d.Intent)
	rec.DeliveryID = d.ID
	rec.Source = string(d.Source)
	rec.Origin = d.Origin
	rec.Target = d.Target
	rec.Outcome = string(outcome)
	if err != nil {
		rec.Error = err.Error()
	}
	r.write(ctx, rec)
}

// raw records an event that never reached the registry.
func (r *recorder) raw(ctx context.Context, raw intents.RawEvent, outcome Outcome, in intents.Intent) {
	rec := recordFor(in)
	rec.DeliveryID = uuid.New()
	rec.Source = string(raw.Source())
	rec.Origin = intents.Origin(raw)
	rec.Target = target(raw)
	rec.Outcome = string(outcome)
	r.write(ctx, rec)
}

func (r *recorder) observed(ctx context.Context, ev intents.NotificationEvent, in intents.Intent) {
	rec := recordFor(in)
	rec.DeliveryID = uuid.New()
	rec.Source = string(ev.Source())
	rec.Origin = string(intents.InteractionDelivered)
	rec.Target = ev.Identifier
	rec.Outcome = string(OutcomeObserved)
	rec.Preview = sources.Preview(ev)
	r.logger.Info("notification observed",
		logger.F("identifier", ev.Identifier),
		logger.F("screen", rec.Screen),
	)
	r.write(ctx, rec)
}

func (r *recorder) write(ctx context.Context, rec domain.RouteRecord) {
	fields := []logger.Field{
		logger.F("delivery_id", rec.DeliveryID),
		logger.F("kind", rec.Kind),
		logger.F("outcome", rec.Outcome),
	}
	if rec.Error != "" {
		fields = append(fields, logger.F("error", rec.Error))
	}
	r.logger.Debug("route settled", fields...)

	if r.history != nil {
		if err := r.history.Create(ctx, &rec); err != nil {
			r.logger.Warn("route history write failed", logger.F("error", err))
		}
	}
	r.activity.Notify(ctx, activity.Event{
		Verb:       activity.VerbPrefix + rec.Outcome,
		DeliveryID: rec.DeliveryID.String(),
		Source:     rec.Source,
		Origin:     rec.Origin,
		Kind:       rec.Kind,
		Screen:     rec.Screen,
		Metadata:   activity.CloneMetadata(rec.Summary),
	})
}

// recordFor fills the intent-derived fields. Secrets are masked.
func recordFor(in intents.Intent) domain.RouteRecord {
	rec := domain.RouteRecord{Kind: string(intents.KindUnrecognized)}
	if in == nil {
		return rec
	}
	rec.Kind = string(in.Kind())
	switch v := in.(type) {
	case intents.VerifyEmail:
		rec.Summary = domain.JSONMap{"token": redact.String(v.Token)}
	case intents.SignupWithReferral:
		rec.Summary = domain.JSONMap{"referralCode": redact.String(v.ReferralCode)}
	case intents.ScanURL:
		rec.Summary = domain.JSONMap{"url": redact.URL(v.TargetURL)}
	case intents.NavigateNamed:
		rec.Screen = v.Screen
		if len(v.Params) > 0 {
			rec.Summary = domain.JSONMap(redact.Map(v.Params))
			keys := make([]string, 0, len(v.Params))
			for k := range v.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rec.ParamKeys = keys
		}
	}
	return rec
}
