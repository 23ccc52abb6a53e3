package cache

// EvictionPolicy selects which cache entry to discard when the cache is at
// capacity. Implementations are stateless; all signal lives on the entries.
type EvictionPolicy interface {
	SelectVictim(entries []Entry) int
}

// FIFOPolicy evicts the entry written longest ago.
type FIFOPolicy struct{}

func (p *FIFOPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	oldestIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[oldestIdx].Timestamp) {
			oldestIdx = i
		}
	}
	return oldestIdx
}

// LRUPolicy evicts the entry accessed longest ago.
type LRUPolicy struct{}

func (p *LRUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	oldestIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].LastAccessAt.Before(entries[oldestIdx].LastAccessAt) {
			oldestIdx = i
		}
	}
	return oldestIdx
}

// LFUPolicy evicts the entry with the fewest hits, breaking ties by recency.
type LFUPolicy struct{}

func (p *LFUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}

	victimIdx := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].HitCount < entries[victimIdx].HitCount {
			victimIdx = i
		} else if entries[i].HitCount == entries[victimIdx].HitCount {
			// Use LRU as tiebreaker to avoid random selection
			if entries[i].LastAccessAt.Before(entries[victimIdx].LastAccessAt) {
				victimIdx = i
			}
		}
	}
	return victimIdx
}

// PolicyFromName maps a config string to a policy. Unknown names get LRU.
func PolicyFromName(name string) EvictionPolicy {
	switch name {
	case "fifo":
		return &FIFOPolicy{}
	case "lfu":
		return &LFUPolicy{}
	default:
		return &LRUPolicy{}
	}
}
