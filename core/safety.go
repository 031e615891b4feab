package core

import (
	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// checkEquivocation() records b as seen at its height in the current view, returning true whenever
// that height now holds two or more distinct blocks (also when b itself was already recorded). A new
// insertion that creates the conflict fires a BLAME; the height stays poisoned for voting purposes.
func (e *Engine) checkEquivocation(b *types.Block) bool {
	byHash, ok := e.proposals[e.view]
	if !ok {
		byHash = map[cert.Hash]*types.Block{}
		e.proposals[e.view] = byHash
	}
	if _, seen := byHash[b.Hash]; seen {
		return e.heightHasEquivocation(b.Height)
	}
	byHash[b.Hash] = b
	equivocated := e.heightHasEquivocation(b.Height)
	if equivocated {
		e._blame()
	}
	return equivocated
}

func (e *Engine) heightHasEquivocation(h uint64) bool {
	byHash := e.proposals[e.view]
	count := 0
	for _, b := range byHash {
		if b.Height == h {
			count++
		}
	}
	return count > 1
}

// voteOpinion() implements the safety rule: walk b along parent₀ until reaching hqc.block's height;
// opinion is true iff that ancestor is exactly hqc.block, i.e. b extends the highest known QC.
func (e *Engine) voteOpinion(b *types.Block) bool {
	p := e.hqc.block
	cur := b
	for cur != nil && cur.Height > p.Height {
		cur = cur.Parent0()
	}
	if cur == nil {
		return false
	}
	return cur.Hash == p.Hash
}

// shouldVote() combines the opinion rule, vheight monotonicity, and equivocation poisoning
func (e *Engine) shouldVote(b *types.Block) bool {
	if b.Height <= e.vheight {
		return false
	}
	if e.heightHasEquivocation(b.Height) {
		return false
	}
	return e.voteOpinion(b)
}

// updateHQC() implements update_hqc(b, qc): accepted only if qc.obj_hash matches H(VOTE||b.hash) and
// b is strictly higher than the current hqc; monotone, the QC is cloned before being stored.
func (e *Engine) updateHQC(b *types.Block, qc *cert.QuorumCert) bool {
	expected := cert.ObjHash(cert.KindVote, b.Hash.Bytes())
	if qc.Obj != expected || qc.Kind != cert.KindVote {
		return false
	}
	if b.Height <= e.hqc.block.Height {
		return false
	}
	e.hqc = hqcState{block: b, qc: qc.Clone()}
	old := e.hqcUpdateP
	e.hqcUpdateP = NewPromise()
	old.Resolve(b)
	return true
}

// checkCommit() implements the commit rule: walk b's parent₀ chain down to b_exec's height; the final
// ancestor must be b_exec itself (or already committed) or safety is violated — a fatal condition.
// Every visited block is marked committed, reported via do_consensus then one Finality per command,
// in root-to-b order, and b_exec advances to b.
func (e *Engine) checkCommit(b *types.Block) lib.ErrorI {
	bExec := e.store.BExec()
	if b.Height <= bExec.Height {
		return nil
	}
	var queue []*types.Block
	cur := b
	for cur != nil && cur.Height > bExec.Height {
		queue = append(queue, cur)
		cur = cur.Parent0()
	}
	if cur == nil || (cur.Hash != bExec.Hash && cur.Decision != types.DecisionCommitted) {
		hash := ""
		if cur != nil {
			hash = cur.Hash.String()
		}
		return lib.ErrSafetyViolation(hash)
	}
	for i := len(queue) - 1; i >= 0; i-- {
		blk := queue[i]
		if blk.Decision == types.DecisionCommitted {
			continue
		}
		blk.Decision = types.DecisionCommitted
		e.app.DoConsensus(blk)
		for idx, cmdHash := range blk.Cmds {
			e.app.DoDecide(&types.Finality{
				Rid:       e.self,
				Decision:  types.DecisionCommitted,
				CmdIdx:    uint32(idx),
				CmdHeight: uint32(blk.Height),
				CmdHash:   cmdHash,
				BlkHash:   blk.Hash,
			})
		}
	}
	e.store.SetBExec(b)
	return nil
}
