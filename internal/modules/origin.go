package modules

import (
	"errors"

	"go-dia-chain/internal/types"
)

// ErrBadOrigin is returned by call handlers when the dispatch origin does
// not satisfy the call's requirement.
var ErrBadOrigin = errors.New("bad origin")

type originKind uint8

const (
	originNone originKind = iota
	originSigned
	originRoot
)

// Origin is the authenticated source of a dispatched call: a signed account,
// the root (privileged governance) origin, or none for inherents.
type Origin struct {
	kind   originKind
	signer types.AccountID
}

func SignedOrigin(signer types.AccountID) Origin {
	return Origin{kind: originSigned, signer: signer}
}

func RootOrigin() Origin {
	return Origin{kind: originRoot}
}

func NoneOrigin() Origin {
	return Origin{kind: originNone}
}

func (o Origin) IsRoot() bool {
	return o.kind == originRoot
}

func (o Origin) IsNone() bool {
	return o.kind == originNone
}

// Signer returns the signing account for signed origins.
func (o Origin) Signer() (types.AccountID, bool) {
	return o.signer, o.kind == originSigned
}

// EnsureSigned returns the signer or ErrBadOrigin.
func (o Origin) EnsureSigned() (types.AccountID, error) {
	signer, ok := o.Signer()
	if !ok {
		return types.AccountID{}, ErrBadOrigin
	}
	return signer, nil
}

// EnsureRoot returns ErrBadOrigin unless the origin is root.
func (o Origin) EnsureRoot() error {
	if !o.IsRoot() {
		return ErrBadOrigin
	}
	return nil
}

// EnsureNone returns ErrBadOrigin unless the origin is an inherent.
func (o Origin) EnsureNone() error {
	if !o.IsNone() {
		return ErrBadOrigin
	}
	return nil
}
