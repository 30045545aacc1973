package notifications

import "log/slog"

// LogNotifier satisfies Notifier for processes that have no connected
// clients (the worker); broadcasts are just logged.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Broadcast(event string, data any) {
	n.log.Info("notification.broadcast", "event", event, "data", data)
}

func (n *LogNotifier) BroadcastToEvent(eventID, event string, data any) {
	n.log.Info("notification.broadcast_room", "event", event, "event_id", eventID, "data", data)
}
