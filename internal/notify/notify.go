// Package notify delivers ticket alerts to the IT channel and to
// operator-defined hook scripts.
package notify

import "strings"

// Notification represents a notification to be sent.
type Notification struct {
	Title   string
	Message string
	Card    any // optional Adaptive Card payload for formats that support it
}

// Notifier sends notifications.
type Notifier interface {
	Send(n Notification) error
	Name() string
}

// MultiNotifier sends notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier from the given notifiers.
func NewMultiNotifier(ns ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: ns}
}

// Send dispatches the notification to all registered notifiers.
// Returns the first error encountered, but attempts all notifiers.
func (m *MultiNotifier) Send(n Notification) error {
	var firstErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Name returns the name of this notifier.
func (m *MultiNotifier) Name() string {
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Noop discards every notification. Used when no channel webhook is
// configured.
type Noop struct{}

func (Noop) Send(Notification) error { return nil }
func (Noop) Name() string            { return "noop" }
