package markets

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	cacheKeyEchelon = "feed:echelon"
	cacheKeyBrokers = "feed:moveposition"
)

// feedCache memoizes protocol feeds for a short TTL so a burst of tool
// calls in one conversation shares a snapshot instead of refetching.
// Lookups that miss simply trigger a fetch; nothing is ever served past
// its TTL.
type feedCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newFeedCache(ttl time.Duration) (*feedCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 64,
		MaxCost:     8,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &feedCache{cache: c, ttl: ttl}, nil
}

func (fc *feedCache) echelon() (*EchelonFeed, bool) {
	v, ok := fc.cache.Get(cacheKeyEchelon)
	if !ok {
		return nil, false
	}
	feed, ok := v.(*EchelonFeed)
	return feed, ok
}

func (fc *feedCache) storeEchelon(feed *EchelonFeed) {
	fc.cache.SetWithTTL(cacheKeyEchelon, feed, 1, fc.ttl)
}

func (fc *feedCache) brokers() ([]Broker, bool) {
	v, ok := fc.cache.Get(cacheKeyBrokers)
	if !ok {
		return nil, false
	}
	brokers, ok := v.([]Broker)
	return brokers, ok
}

func (fc *feedCache) storeBrokers(brokers []Broker) {
	fc.cache.SetWithTTL(cacheKeyBrokers, brokers, 1, fc.ttl)
}
