package classify

import "github.com/ppiankov/nrmlc/internal/model"

// Chain flattens the successor links starting at first into an ordered
// slice. The walk is iterative and stops at a block it has already seen.
func Chain(first *model.Block) []*model.Block {
	var chain []*model.Block
	seen := make(map[*model.Block]bool)

	for b := first; b != nil; b = b.Successor() {
		if seen[b] {
			break
		}
		seen[b] = true
		chain = append(chain, b)
	}

	return chain
}

// Sequence returns the statement sequence of a workspace: the chain of the
// first top-level block, or of every top-level block in order when all is set.
func Sequence(ws *model.Workspace, all bool) []*model.Block {
	if ws == nil || len(ws.Blocks.Blocks) == 0 {
		return nil
	}
	if !all {
		return Chain(ws.Blocks.Blocks[0])
	}

	var seq []*model.Block
	for _, top := range ws.Blocks.Blocks {
		seq = append(seq, Chain(top)...)
	}
	return seq
}
