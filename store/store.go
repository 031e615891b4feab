package store

import (
	"sort"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// Persister is the write-behind log interface the store appends delivered blocks to. It is strictly
// additive logging for crash-recovery replay; the store never reads through it.
type Persister interface {
	Append(b *types.Block) error
}

// PinnedFunc reports whether a block is still reachable from hqc, b_exec, tails, or an in-flight
// certificate aggregator — the core supplies this at prune/release time, since only it knows.
type PinnedFunc func(cert.Hash) bool

// Store is the content-addressed block DAG: an arena of blocks indexed by hash, with parent and
// qc_ref edges resolved lazily at delivery time so cyclic qc_ref references (a block's QC can point
// back to an ancestor) never need two-pass construction.
type Store struct {
	blocks  map[cert.Hash]*types.Block
	tails   map[cert.Hash]*types.Block
	genesis *types.Block
	bExec   *types.Block
	logger  lib.LoggerI
	persist Persister
}

// NewStore() seeds the arena with the genesis block as its own qc_ref, already delivered and committed
func NewStore(genesis *types.Block, logger lib.LoggerI) *Store {
	s := &Store{
		blocks:  map[cert.Hash]*types.Block{genesis.Hash: genesis},
		tails:   map[cert.Hash]*types.Block{genesis.Hash: genesis},
		genesis: genesis,
		bExec:   genesis,
		logger:  logger,
	}
	return s
}

// SetPersister() attaches an optional write-behind log; may be called at most once, before any Deliver
func (s *Store) SetPersister(p Persister) { s.persist = p }

// AddBlk() inserts a parsed-but-not-yet-delivered block, idempotent by hash. Returns the stored handle
// (the pre-existing one on a duplicate insert) and whether this call was the one that inserted it.
func (s *Store) AddBlk(b *types.Block) (*types.Block, bool) {
	if existing, ok := s.blocks[b.Hash]; ok {
		return existing, false
	}
	s.blocks[b.Hash] = b
	return b, true
}

// Find() looks up a block by hash
func (s *Store) Find(h cert.Hash) (*types.Block, bool) {
	b, ok := s.blocks[h]
	return b, ok
}

// Genesis() returns the store's genesis block
func (s *Store) Genesis() *types.Block { return s.genesis }

// BExec() returns the last-executed block
func (s *Store) BExec() *types.Block { return s.bExec }

// SetBExec() advances the last-executed pointer; the caller (commit rule) guarantees monotonicity
func (s *Store) SetBExec(b *types.Block) { s.bExec = b }

// Tails() returns the current DAG tails (blocks with no delivered child), ordered by ascending height
func (s *Store) Tails() []*types.Block {
	out := make([]*types.Block, 0, len(s.tails))
	for _, b := range s.tails {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// Deliver() implements on_deliver_blk's store-facing half: resolve parent handles, compute height,
// resolve qc_ref (fail-fast if missing), update tails, and mark delivered. Re-delivery is a no-op
// returning false. Preconditions (every parent already delivered, the qc_ref block already in the
// store) are asserted here rather than by the caller, since the store is what can check them.
func (s *Store) Deliver(b *types.Block) (bool, lib.ErrorI) {
	if b.Delivered {
		return false, nil
	}
	parents := make([]*types.Block, 0, len(b.ParentHashes))
	for _, ph := range b.ParentHashes {
		p, ok := s.blocks[ph]
		if !ok || !p.Delivered {
			return false, lib.ErrUndeliveredParent(ph.String())
		}
		parents = append(parents, p)
	}
	if b.HasQC() {
		ref, ok := s.blocks[b.QCRefHash]
		if !ok || !ref.Delivered {
			return false, lib.ErrUnresolvedQCRef(b.QCRefHash.String())
		}
		b.QCRef = ref
	}
	b.Parents = parents
	if len(parents) > 0 {
		b.Height = parents[0].Height + 1
	}
	for _, p := range parents {
		delete(s.tails, p.Hash)
	}
	s.tails[b.Hash] = b
	b.Delivered = true
	if s.persist != nil {
		if err := s.persist.Append(b); err != nil {
			s.logger.Warnf("persist append failed for block %s: %s", b.Hash, err.Error())
		}
	}
	return true, nil
}

// TryRelease() releases a single block from the arena, refusing if still pinned
func (s *Store) TryRelease(b *types.Block, pinned PinnedFunc) lib.ErrorI {
	if b.Hash == s.genesis.Hash {
		return lib.ErrStillReferenced(b.Hash.String())
	}
	if pinned(b.Hash) {
		return lib.ErrStillReferenced(b.Hash.String())
	}
	b.Parents = nil
	b.QCRef = nil
	delete(s.blocks, b.Hash)
	delete(s.tails, b.Hash)
	return nil
}

// Prune() walks staleness ancestors back from b_exec along parent₀, then depth-first releases that
// anchor block itself along with everything reachable from it (its parents and qc_ref chains),
// detaching edges as it descends. No released block may still appear in hqc, b_exec, tails, or any
// in-flight aggregator — pinned reports exactly that, supplied by the core. A pinned block is kept
// with its edges intact, but the walk still continues into its parents and qc_ref.
func (s *Store) Prune(staleness uint64, pinned PinnedFunc) {
	anchor := s.bExec
	for i := uint64(0); i < staleness; i++ {
		p0 := anchor.Parent0()
		if p0 == nil {
			break
		}
		anchor = p0
	}
	s.releaseReachable(anchor, pinned)
}

func (s *Store) releaseReachable(b *types.Block, pinned PinnedFunc) {
	if b == nil || b.Hash == s.genesis.Hash {
		return
	}
	parents := b.Parents
	qcRef := b.QCRef
	if !pinned(b.Hash) {
		b.Parents = nil
		b.QCRef = nil
		delete(s.blocks, b.Hash)
		delete(s.tails, b.Hash)
	}
	for _, p := range parents {
		s.releaseReachable(p, pinned)
	}
	if qcRef != nil && qcRef.Hash != b.Hash {
		s.releaseReachable(qcRef, pinned)
	}
}
