package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler reacts to one emitted event. Returned errors are logged, never surfaced to the emitter.
type Handler func(ctx context.Context, payload any) error

// Bus is an in-process registry of handlers keyed by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{handlers: make(map[string][]Handler), logger: logger}
}

func (b *Bus) On(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit runs every handler registered for event synchronously and returns how many ran.
// A failing or panicking handler does not stop the others.
func (b *Bus) Emit(ctx context.Context, event string, payload any) int {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("No handlers for event", zap.String("event", event))
		return 0
	}

	for _, h := range handlers {
		if err := b.invoke(ctx, h, payload); err != nil {
			b.logger.Error("Event handler failed", zap.String("event", event), zap.Error(err))
		}
	}
	return len(handlers)
}

func (b *Bus) invoke(ctx context.Context, h Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

// HandlerCount reports the number of handlers registered for event.
func (b *Bus) HandlerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
