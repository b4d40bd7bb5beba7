package database

import (
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached returns a client for the comma separated server list, or
// nil when the list is empty.
func NewMemcached(servers string) *memcache.Client {
	var addrs []string
	for _, s := range strings.Split(servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			addrs = append(addrs, s)
		}
	}
	if len(addrs) == 0 {
		return nil
	}
	client := memcache.New(addrs...)
	client.Timeout = 200 * time.Millisecond
	return client
}
