package state_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kysee/spot-rollup-state/state"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/stretchr/testify/require"
)

func TestL2BlockMarshalJSONHexEncodesFrFields(t *testing.T) {
	gs := newTestState(t, 2)
	account := gs.CreateNewAccount(1)
	gs.DepositToOld(state.DepositToOldTx{AccountID: account, TokenID: 0, Amount: types.U32ToFr(1_000_000)})
	gs.FlushWithNop()

	blocks := gs.TakeBlocks()
	require.Len(t, blocks, 1)

	bz, err := json.Marshal(blocks[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(bz, &decoded))

	roots, ok := decoded["old_account_roots"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, roots)
	for _, r := range roots {
		s, ok := r.(string)
		require.True(t, ok)
		require.True(t, strings.HasPrefix(s, "0x"))
	}
}
