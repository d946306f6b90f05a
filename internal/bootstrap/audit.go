package bootstrap

import (
	"context"

	"chathub/internal/pkg/logger"
	"chathub/pkg/events"
	pkgNats "chathub/pkg/nats"
)

// auditConsumerDurable names the JetStream consumer so restarts resume
// from where the previous process left off instead of replaying the
// whole "CHAT_EVENTS" stream.
const auditConsumerDurable = "chat-audit-log"

// startAuditConsumer subscribes to every chat domain event and writes it
// through the application logger, giving operators a durable trail of
// message/presence activity independent of the realtime hub's own state.
// A nil sub (NATS unreachable at startup) is a no-op.
func startAuditConsumer(sub *pkgNats.Subscriber, log logger.ILogger) {
	if sub == nil {
		return
	}

	err := sub.Subscribe("chat.>", auditConsumerDurable, func(_ context.Context, event events.Event) error {
		log.Info("Audit", event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Warn("Audit", "failed to subscribe to chat events", map[string]interface{}{"error": err.Error()})
	}
}
