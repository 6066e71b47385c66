package service

import (
	"fmt"

	"github.com/subdarkdex/subdex-parachain/infra/journal"
	"github.com/subdarkdex/subdex-parachain/infra/store"
	"github.com/subdarkdex/subdex-parachain/runtime"
)

// bootState rebuilds the executor from the latest snapshot plus the
// journal tail. It must finish before the node serves traffic.
//
// The journal is the source of truth; the store's head and outbox
// follow it. AuthorBlock syncs the journal before committing the
// store, so after a crash the store is at most one block behind the
// last journaled block. That block is re-committed here, head row and
// outbound rows in the same batch, which keeps the outbox exactly
// aligned with history.
func bootState(g runtime.Genesis, jnl *journal.Journal, st *store.Store, verifier runtime.SignatureVerifier) (*runtime.Executor, error) {
	snapHeight, snapBody, err := st.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var state *runtime.State
	if snapBody != nil {
		state, err = runtime.DecodeState(snapBody, g.Params)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot at %d: %w", snapHeight, err)
		}
	} else {
		state, err = runtime.NewState(g)
		if err != nil {
			return nil, err
		}
	}

	exec := runtime.NewExecutor(state, verifier)

	var last *runtime.BlockResult
	_, err = journal.Replay(jnl.Dir(), func(rec *journal.Record) error {
		if rec.Kind != journal.RecordBlock || rec.Height <= state.Height {
			return nil
		}
		block, err := runtime.DecodeBlock(rec.Data)
		if err != nil {
			return fmt.Errorf("block %d: %w", rec.Height, err)
		}
		res, err := exec.ExecuteBlock(block)
		if err != nil {
			return err
		}
		last = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("journal replay: %w", err)
	}

	if last != nil {
		head, _, err := st.Head()
		if err != nil {
			return nil, err
		}
		if head < last.Header.Height {
			if err := st.CommitBlock(last.Header.Height, last.Header.EncodeToBytes(), encodeOutbound(last.Outbound)); err != nil {
				return nil, fmt.Errorf("heal head at %d: %w", last.Header.Height, err)
			}
		}
	}
	return exec, nil
}
