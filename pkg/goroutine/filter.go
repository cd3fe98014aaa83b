package goroutine

import "slices"

// defaultNoise holds signatures of goroutines that are expected to be
// parked in any healthy node: stream sync loops, HTTP/2 connection
// management and network poller waits.
var defaultNoise = []string{
	"core/node/rpc/sync/client.(*SyncerSet).Run",
	"core/node/rpc/sync/client.(*localSyncer).Run",
	"core/node/rpc/sync.(*handlerImpl).SyncStreams",
	"core/node/rpc/sync.(*StreamSyncOperation).Run",
	"x/net/http2.(*clientStream).writeRequest___x/net/http2.(*clientStream).doRequest",
	"sync.runtime_notifyListWait___core/node/rpc/sync/client.(*remoteSyncer).Run",
	"x/net/http2.(*serverConn).serve___net/http.(*conn).serve",
	"internal/poll.runtime_pollWait___x/net/http2.(*serverConn).readFrames",
	"internal/poll.runtime_pollWait___x/net/http2.(*ClientConn).readLoop",
	"internal/poll.runtime_pollWait___net/http.(*http2ClientConn).readLoop",
	"go-ethereum/core.(*txSenderCacher).cache___go-ethereum/core.(*txSenderCacher).cache",
	"core/node/rpc/sync/client.(*remoteSyncer).connectionAlive",
}

// DefaultNoise returns the built-in noise signatures.
func DefaultNoise() []string {
	return slices.Clone(defaultNoise)
}

// Filter is a set of signatures to drop from a report.
type Filter map[string]struct{}

// NewFilter returns a Filter with the default noise signatures plus extra.
func NewFilter(extra ...string) Filter {
	f := make(Filter, len(defaultNoise)+len(extra))
	for _, sig := range defaultNoise {
		f[sig] = struct{}{}
	}
	for _, sig := range extra {
		f[sig] = struct{}{}
	}
	return f
}

// Contains reports whether sig is an exact match for a noise signature.
func (f Filter) Contains(sig string) bool {
	_, ok := f[sig]
	return ok
}

// Apply returns the records whose signature is not in the filter, in order.
// A nil filter keeps everything.
func (f Filter) Apply(records []Record) []Record {
	if len(f) == 0 {
		return records
	}
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if !f.Contains(r.TopFunction) {
			kept = append(kept, r)
		}
	}
	return kept
}
