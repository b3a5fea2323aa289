package mqtt

import "github.com/sweeney/gate-controller/internal/logic"

// Noop implements Publisher but does nothing.
// Used when no broker is configured.
type Noop struct{}

// Publish implements Publisher.Publish.
func (Noop) Publish(logic.Event) error { return nil }

// PublishSystem implements Publisher.PublishSystem.
func (Noop) PublishSystem(SystemEvent) error { return nil }

// Close implements Publisher.Close.
func (Noop) Close() error { return nil }

// IsConnected always reports false.
func (Noop) IsConnected() bool { return false }
