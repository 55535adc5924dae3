package archive

import (
	"go-dia-chain/internal/runtime"
	"go-dia-chain/internal/types"
)

type (
	// ArchiveJob carries one sealed block to the archive workers.
	ArchiveJob struct {
		Block    *types.Block
		Outcomes []runtime.DispatchOutcome
		Events   []types.Event
	}

	// Extrinsic is the postgres row model for one applied extrinsic.
	Extrinsic struct {
		Id          string
		TxHash      string
		Module      string
		Call        string
		BlockHeight uint32
		Success     bool
		IsSigned    bool
		Fee         uint64
		Weight      uint64
	}

	// Event is the postgres row model for one deposited event.
	Event struct {
		Id          string
		Module      string
		Event       string
		BlockHeight uint32
	}
)
