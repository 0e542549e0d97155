package telemetry

import (
	"testing"

	"github.com/e7canasta/pixelmirror/config"
)

func TestEmitterPublishNoOpWithoutConnection(t *testing.T) {
	e := NewEmitter(config.MQTTConfig{StatusTopic: "pixelmirror/status"})
	// No Connect() call: publish must be a safe no-op, not a panic or
	// blocking call.
	e.publish(e.cfg.StatusTopic, []byte("connected"))

	published, errs, connected := e.Stats()
	if published != 0 || errs != 0 || connected {
		t.Fatalf("Stats() = (%d, %d, %v), want (0, 0, false)", published, errs, connected)
	}
}
