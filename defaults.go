package burrow

import "time"

const (
	// DefaultCapacity is the memory tier bound used when no capacity option
	// is given.
	DefaultCapacity = 64

	// DefaultTTL is the expiration offset used when no TTL option is given.
	DefaultTTL = 5 * time.Minute

	// DefaultPrefetchRPS and DefaultPrefetchBurst pace background
	// pre-fetches when no explicit rate is configured.
	DefaultPrefetchRPS   = 2
	DefaultPrefetchBurst = 4
)
