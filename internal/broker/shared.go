package broker

import "sync"

var (
	sharedOnce   sync.Once
	sharedBroker *RedisMessageBroker
	sharedErr    error
)

// Init builds the process-wide broker exactly once. Later calls return the
// instance (or error) of the first call, whatever URL they pass.
func Init(redisURL string) (*RedisMessageBroker, error) {
	sharedOnce.Do(func() {
		sharedBroker, sharedErr = NewRedisMessageBroker(redisURL)
	})
	return sharedBroker, sharedErr
}

// Shared returns the broker built by Init, or nil before Init ran
func Shared() *RedisMessageBroker {
	return sharedBroker
}
