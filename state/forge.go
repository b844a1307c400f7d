package state

import "github.com/kysee/spot-rollup-state/types"

// addRawTx appends tx to the buffer and, whenever the buffer's length
// becomes a multiple of n_tx, forges the trailing n_tx entries into a
// new L2Block.
func (s *GlobalState) addRawTx(tx RawTx) {
	s.bufferedTxs = append(s.bufferedTxs, tx)
	if len(s.bufferedTxs)%int(s.nTx) == 0 {
		batch := s.bufferedTxs[len(s.bufferedTxs)-int(s.nTx):]
		block := s.forgeWithTxs(batch)
		s.bufferedBlocks = append(s.bufferedBlocks, block)
		s.logger.Debug().Int("blocks_buffered", len(s.bufferedBlocks)).Msg("block forged")
	}
}

// forgeWithTxs transposes a slice of exactly n_tx RawTx entries into the
// column-major L2Block layout the witness runner expects.
func (s *GlobalState) forgeWithTxs(txs []RawTx) L2Block {
	block := L2Block{
		TxsType:             make([]TxType, len(txs)),
		EncodedTxs:          make([][TxLength]types.Fr, len(txs)),
		BalancePathElements: make([][4][]types.Fr, len(txs)),
		OrderPathElements:   make([][2][]types.Fr, len(txs)),
		AccountPathElements: make([][2][]types.Fr, len(txs)),
		OrderRoots:          make([][2]types.Fr, len(txs)),
		OldAccountRoots:     make([]types.Fr, len(txs)),
		NewAccountRoots:     make([]types.Fr, len(txs)),
	}
	for i, tx := range txs {
		block.TxsType[i] = tx.TxType
		block.EncodedTxs[i] = tx.Payload
		block.BalancePathElements[i] = [4][]types.Fr{tx.BalancePath0, tx.BalancePath1, tx.BalancePath2, tx.BalancePath3}
		block.OrderPathElements[i] = [2][]types.Fr{tx.OrderPath0, tx.OrderPath1}
		block.AccountPathElements[i] = [2][]types.Fr{tx.AccountPath0, tx.AccountPath1}
		block.OrderRoots[i] = [2]types.Fr{tx.OrderRoot0, tx.OrderRoot1}
		block.OldAccountRoots[i] = tx.RootBefore
		block.NewAccountRoots[i] = tx.RootAfter
	}
	return block
}

// FlushWithNop pads the buffer with Nop transactions until its length
// is a multiple of n_tx, forging any resulting blocks along the way.
func (s *GlobalState) FlushWithNop() {
	for len(s.bufferedTxs)%int(s.nTx) != 0 {
		s.Nop()
	}
}

// Forge flushes any partial block with nops and returns the most
// recently forged L2Block.
func (s *GlobalState) Forge() L2Block {
	s.FlushWithNop()
	return s.bufferedBlocks[len(s.bufferedBlocks)-1]
}

// TakeBlocks drains and returns every block forged so far.
func (s *GlobalState) TakeBlocks() []L2Block {
	blocks := s.bufferedBlocks
	s.bufferedBlocks = nil
	return blocks
}

// BufferedBlocks returns the blocks forged so far without draining
// them.
func (s *GlobalState) BufferedBlocks() []L2Block {
	return s.bufferedBlocks
}

// BufferedTxCount reports how many RawTx entries are buffered,
// including ones already folded into a forged block.
func (s *GlobalState) BufferedTxCount() int {
	return len(s.bufferedTxs)
}
