package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/resilience"
)

// transientConnErrs are the client errors that surface while the server is
// restarting or the connection is mid-reconnect. Publishes of ingest and
// index events are safe to retry in that window: the worker deduplicates
// on document ID, so a duplicate delivery is harmless.
var transientConnErrs = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The caller gave up. Retrying would waste the breaker's budget on
		// an outcome NATS had no part in.
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	for _, transient := range transientConnErrs {
		if errors.Is(err, transient) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	// Bad subject, oversized payload: a retry would fail the same way.
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// wrapTemporaryIfNeeded tags retryable publish failures as temporary so the
// HTTP layer answers 503 and the caller re-submits the document.
func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "event publish", err)
	}
	return err
}
