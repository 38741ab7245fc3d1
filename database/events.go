// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
	kafka "github.com/segmentio/kafka-go"

	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/core/logger"
)

// Listener handles one event fired by the Events bus.
type Listener func(event string, args interface{})

// Events is the named-channel event bus: trigger(event, args) fans out to
// "*" listeners then to listeners registered under event's own name. A
// scoped silent(f) suppresses every emission for the dynamic extent of f,
// engine-scoped (not shared across database instances) per the
// concurrency model's "silent-events flag is engine-scoped" rule.
type Events struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	silent    access.ScopedCounter

	// kafkaWriter, when set, mirrors every fired event onto a Kafka topic
	// synchronously, inline in trigger: an outbox write, not a background
	// publish, so it respects the engine's single-logical-actor model.
	kafkaWriter *kafka.Writer
}

// NewEvents returns an empty Events bus.
func NewEvents() *Events {
	return &Events{listeners: map[string][]Listener{}}
}

// WithKafkaMirror configures a synchronous Kafka outbox mirror: every
// triggered event (unless suppressed by Silent) is also written, inline, to
// writer. A failure to write to Kafka is logged but does not fail the
// triggering operation — the mirror is best-effort observability, not a
// transactional outbox.
func (e *Events) WithKafkaMirror(writer *kafka.Writer) *Events {
	e.kafkaWriter = writer
	return e
}

// On registers listener under event. Use EventAll to listen to everything.
func (e *Events) On(event string, listener Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Trigger fans event out to "*" listeners, then to event's own listeners,
// unless a Silent scope is currently active.
func (e *Events) Trigger(ctx context.Context, event string, args interface{}) {
	if e.silent.Active() {
		return
	}
	e.mu.RLock()
	all := append([]Listener(nil), e.listeners[EventAll]...)
	named := append([]Listener(nil), e.listeners[event]...)
	e.mu.RUnlock()

	for _, l := range all {
		l(event, args)
	}
	for _, l := range named {
		l(event, args)
	}

	if e.kafkaWriter != nil {
		e.mirrorToKafka(ctx, event, args)
	}
}

func (e *Events) mirrorToKafka(ctx context.Context, event string, args interface{}) {
	payload, err := json.Marshal(args)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("events: cannot marshal event payload for kafka mirror")
		return
	}
	err = e.kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: payload,
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("events: kafka mirror write failed")
	}
}

// Silent runs f with all emissions suppressed, restoring prior behavior on
// exit even if f panics.
func (e *Events) Silent(f func() error) error {
	return e.silent.With(f)
}
