package store

import (
	"golang.org/x/sync/singleflight"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/types"
)

// Parser collapses concurrent decode-and-insert calls for the same raw block bytes (a gossip
// duplicate racing a direct fetch, the common case for a network-facing collaborator feeding this
// store) into a single parse, via a singleflight.Group rather than a hand-rolled mutex-and-map. The
// store's own AddBlk stays synchronous and lock-free, since it is only ever called from the single
// event-loop goroutine; Parser exists for collaborators that receive raw bytes from more than one
// source concurrently, before that single goroutine sees them.
type Parser struct {
	store *Store
	g     singleflight.Group
}

// NewParser() wraps a Store with concurrent-decode deduplication
func NewParser(s *Store) *Parser { return &Parser{store: s} }

// ParseAndAdd() decodes raw with decode, then inserts the result into the store, collapsing
// concurrent calls carrying the same hash key into one decode+insert. The hash key is the caller's
// to supply (typically computed cheaply from raw before the expensive decode step, e.g. a digest of
// the wire bytes) since the store itself cannot know a block's hash before it is parsed.
func (p *Parser) ParseAndAdd(key cert.Hash, raw []byte, decode func([]byte) (*types.Block, error)) (*types.Block, bool, error) {
	v, err, _ := p.g.Do(key.String(), func() (interface{}, error) {
		blk, derr := decode(raw)
		if derr != nil {
			return nil, derr
		}
		stored, inserted := p.store.AddBlk(blk)
		return [2]interface{}{stored, inserted}, nil
	})
	if err != nil {
		return nil, false, err
	}
	pair := v.([2]interface{})
	return pair[0].(*types.Block), pair[1].(bool), nil
}
