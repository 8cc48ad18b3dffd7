package loader

// Action selects which cache tiers and network a load may consult.
type Action int

const (
	// Normal passes through every cache level; on a miss or an expired
	// entry the content is fetched from the network.
	Normal Action = iota
	// CacheOnly serves whatever the caches hold, ignoring expiration, and
	// never touches the network.
	CacheOnly
	// PreFetch warms the caches for content that will be needed soon; the
	// result is not meant for the caller.
	PreFetch
	// Refresh discards cached data for the key and fetches anew.
	Refresh
)

func (a Action) String() string {
	switch a {
	case Normal:
		return "normal"
	case CacheOnly:
		return "cache_only"
	case PreFetch:
		return "pre_fetch"
	case Refresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// RacePolicy names the behavior when a Refresh races another load for the
// same key.
type RacePolicy int

const (
	// RaceLoserAwaits lets whoever wins the insert run the fetch; the loser
	// awaits the winner's result, which for a refresh racing a normal load
	// may be older than the refresh call.
	RaceLoserAwaits RacePolicy = iota
	// RefreshAlwaysWins forcibly replaces a racing entry so a refresh is
	// guaranteed to observe the network, at the cost of an occasional
	// duplicate fetch.
	RefreshAlwaysWins
)
