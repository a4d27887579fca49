package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get returns the process-wide event bus instance.
func Get() evbus.Bus {
	once.Do(func() {
		instance = evbus.New()
	})
	return instance
}

// Publish delivers an event to every subscriber of the topic.
func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

// Subscribe registers a handler for the topic.
func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

// SubscribeAsync registers a handler that runs in its own goroutine.
func SubscribeAsync(topic string, fn interface{}) error {
	return Get().SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered handler.
func Unsubscribe(topic string, fn interface{}) error {
	return Get().Unsubscribe(topic, fn)
}
