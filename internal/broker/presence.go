package broker

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "presence:connections"

// leaveScript decrements and drops an emptied entry atomically
var leaveScript = redis.NewScript(`
local count = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if count <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
end
return count
`)

// PresenceRegistry counts open connections per user in a Redis hash so a
// user with several tabs stays online until the last one disconnects.
type PresenceRegistry struct {
	client *redis.Client
	key    string
}

func NewPresenceRegistry(client *redis.Client) *PresenceRegistry {
	return &PresenceRegistry{client: client, key: presenceKey}
}

// Join records a connection and reports whether it is the user's first
func (p *PresenceRegistry) Join(ctx context.Context, userID string) (bool, error) {
	count, err := p.client.HIncrBy(ctx, p.key, userID, 1).Result()
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// Leave drops a connection and reports whether it was the user's last
func (p *PresenceRegistry) Leave(ctx context.Context, userID string) (bool, error) {
	count, err := leaveScript.Run(ctx, p.client, []string{p.key}, userID).Int64()
	if err != nil {
		return false, err
	}
	// below zero the entry was already gone, nobody to announce
	return count == 0, nil
}

// Members returns the ids of every user with at least one connection
func (p *PresenceRegistry) Members(ctx context.Context) ([]string, error) {
	return p.client.HKeys(ctx, p.key).Result()
}
