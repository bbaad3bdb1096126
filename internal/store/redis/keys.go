package redis

const (
	// KeyPrefix namespaces everything this service writes to Redis.
	KeyPrefix = "devs:search:"
	// ChannelInvalidations carries cache invalidation events between instances.
	ChannelInvalidations = KeyPrefix + "invalidations"
)

// InvalidationsChannel returns the pub/sub channel for cache invalidations.
func InvalidationsChannel() string {
	return ChannelInvalidations
}
