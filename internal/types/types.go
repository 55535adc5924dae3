package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/pkg/scale"
)

const (
	// ExtrinsicVersion is the only envelope version this runtime decodes.
	ExtrinsicVersion uint8 = 4
)

var (
	ErrBadExtrinsicVersion = errors.New("unsupported extrinsic envelope version")
	ErrBadSignature        = errors.New("invalid extrinsic signature")
	ErrUnsignedCall        = errors.New("call requires a signed origin")
)

// AccountID is a 32 byte ed25519 public key identifying an account.
type AccountID [32]byte

func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != len(id) {
		return id, fmt.Errorf("account id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Call addresses one dispatchable function of one runtime module together
// with its SCALE encoded arguments.
type Call struct {
	ModuleIndex   uint8
	FunctionIndex uint8
	Args          []byte
}

// SignaturePayload carries the origin of a signed extrinsic. A nil payload on
// the envelope marks an inherent.
type SignaturePayload struct {
	Signer    AccountID
	Signature [64]byte
	Nonce     uint32
}

// Extrinsic is the wire envelope described by the chain: version byte,
// optional signature payload, call. Field order is fixed by the SCALE codec.
type Extrinsic struct {
	Version   uint8
	Signature *SignaturePayload
	Call      Call
}

func (e *Extrinsic) IsSigned() bool {
	return e.Signature != nil
}

// Encode returns the length prefixed envelope bytes, the form the node
// accepts at the submission boundary.
func (e *Extrinsic) Encode() ([]byte, error) {
	inner, err := scale.Marshal(*e)
	if err != nil {
		return nil, err
	}
	return scale.Marshal(inner)
}

// DecodeExtrinsic decodes a length prefixed envelope produced by Encode.
func DecodeExtrinsic(data []byte) (*Extrinsic, error) {
	var inner []byte
	if err := scale.Unmarshal(data, &inner); err != nil {
		return nil, err
	}
	ext := new(Extrinsic)
	if err := scale.Unmarshal(inner, ext); err != nil {
		return nil, err
	}
	if ext.Version != ExtrinsicVersion {
		return nil, ErrBadExtrinsicVersion
	}
	return ext, nil
}

// Hash returns the blake2b digest of the length prefixed envelope.
func (e *Extrinsic) Hash() (common.Hash, error) {
	enc, err := e.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2bHash(enc)
}

// signedPayload is the message actually signed by submitters: the call, the
// account nonce and the genesis hash, so envelopes cannot be replayed on
// another chain.
type signedPayload struct {
	Call        Call
	Nonce       uint32
	GenesisHash common.Hash
}

func SigningPayload(call Call, nonce uint32, genesisHash common.Hash) ([]byte, error) {
	return scale.Marshal(signedPayload{
		Call:        call,
		Nonce:       nonce,
		GenesisHash: genesisHash,
	})
}

// Header versions one block of the chain.
type Header struct {
	ParentHash     common.Hash
	Number         uint32
	StateRoot      common.Hash
	ExtrinsicsRoot common.Hash
}

func (h *Header) Hash() (common.Hash, error) {
	enc, err := scale.Marshal(*h)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2bHash(enc)
}

// Block is a header plus the ordered extrinsics sealed under it.
type Block struct {
	Header     Header
	Extrinsics []Extrinsic
}

// ExtrinsicsRoot computes the digest committing the header to the block body.
func ExtrinsicsRoot(extrinsics []Extrinsic) (common.Hash, error) {
	var buf bytes.Buffer
	for i := range extrinsics {
		enc, err := extrinsics[i].Encode()
		if err != nil {
			return common.Hash{}, err
		}
		buf.Write(enc)
	}
	return common.Blake2bHash(buf.Bytes())
}
