package runtime

import (
	"go-dia-chain/internal/modules/balances"
	"go-dia-chain/internal/modules/oracle"
	"go-dia-chain/internal/modules/session"
	"go-dia-chain/internal/modules/sudo"
	"go-dia-chain/internal/modules/system"
	"go-dia-chain/internal/modules/timestamp"
)

// Canonical module indices of the dia chain runtime. Callers building raw
// calls for this chain address modules through these.
const (
	SystemModuleIndex    uint8 = 0
	TimestampModuleIndex uint8 = 1
	BalancesModuleIndex  uint8 = 2
	SessionModuleIndex   uint8 = 3
	SudoModuleIndex      uint8 = 4
	OracleModuleIndex    uint8 = 5
)

// NewDiaRuntime composes the production runtime in its canonical module
// order.
func NewDiaRuntime() (*Runtime, error) {
	sudoModule := sudo.New(SudoModuleIndex)

	chainRuntime, err := New(
		system.New(SystemModuleIndex),
		timestamp.New(TimestampModuleIndex),
		balances.New(BalancesModuleIndex),
		session.New(SessionModuleIndex),
		sudoModule,
		oracle.New(OracleModuleIndex),
	)
	if err != nil {
		return nil, err
	}

	sudoModule.SetDispatcher(chainRuntime)
	return chainRuntime, nil
}
