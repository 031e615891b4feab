package core

import (
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// OnDeliverBlk() implements §4.2. Preconditions (every parent already delivered, any referenced qc's
// block already in the store) are enforced by the store itself; this handler just forwards into it.
// Re-delivery is a no-op returning false, matching the store's contract.
func (e *Engine) OnDeliverBlk(b *types.Block) (bool, lib.ErrorI) {
	delivered, err := e.store.Deliver(b)
	if err != nil {
		return false, err
	}
	return delivered, nil
}
