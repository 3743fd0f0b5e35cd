package stream

import (
	"context"
	"fmt"
	"strings"
)

// DashboardResource is the key of the plant-wide dashboard channel.
const DashboardResource = "dashboard"

// Handler receives provider callbacks for one subscription.
type Handler interface {
	OnOpen()
	OnMessage(raw []byte)
	OnError(err error)
}

// Subscription is a live push channel. Close must be safe to call more than
// once and must not block on in-flight callbacks.
type Subscription interface {
	Close() error
}

// Provider opens push channels. Subscribe may return before the channel is
// open; the provider then calls OnOpen from its own goroutine.
type Provider interface {
	Subscribe(ctx context.Context, key string, h Handler) (Subscription, error)
}

// ResourceForEquipment returns the channel key for one machine.
func ResourceForEquipment(id int64) string {
	return fmt.Sprintf("equipment/%d", id)
}

// NormalizeKey trims slashes and whitespace from a resource key.
func NormalizeKey(key string) string {
	return strings.Trim(strings.TrimSpace(key), "/")
}

// ResourceURL joins base and key into the channel's stream URL.
func ResourceURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + NormalizeKey(key) + "/stream"
}
