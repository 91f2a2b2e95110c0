// Package service implements the credential flows and the program
// operations. Every mutation receives the caller's identity explicitly.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/metrics"
	"github.com/fitnesshub/program-tracker/internal/queue"
)

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type options struct {
	now     func() time.Time
	log     *zap.Logger
	events  queue.Publisher
	metrics *metrics.Metrics
}

// Option configures a service.
type Option func(*options)

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }
func WithLogger(l *zap.Logger) Option       { return func(o *options) { o.log = l } }
func WithEvents(p queue.Publisher) Option   { return func(o *options) { o.events = p } }
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		log:    zap.NewNop(),
		events: queue.NopPublisher{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) clock() time.Time { return o.now().UTC() }

func (o options) publish(ctx context.Context, ev queue.AuditEvent) {
	ev.OccurredAt = o.clock()
	if err := o.events.Publish(ctx, ev); err != nil {
		o.log.Warn("publish audit event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
