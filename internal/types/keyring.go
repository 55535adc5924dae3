package types

import (
	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/ChainSafe/gossamer/lib/crypto/ed25519"
	"golang.org/x/crypto/blake2b"
)

// Keyring wraps an ed25519 keypair with the account identity derived from it.
type Keyring struct {
	keypair *ed25519.Keypair
	account AccountID
}

// NewKeyringFromSeed derives a deterministic keyring from an arbitrary seed
// string. The seed is stretched to 32 bytes with blake2b, the way dev
// accounts are derived from their well known phrases.
func NewKeyringFromSeed(seed string) (*Keyring, error) {
	digest := blake2b.Sum256([]byte(seed))
	kp, err := ed25519.NewKeypairFromSeed(digest[:])
	if err != nil {
		return nil, err
	}
	account, err := AccountIDFromBytes(kp.Public().Encode())
	if err != nil {
		return nil, err
	}
	return &Keyring{keypair: kp, account: account}, nil
}

func (k *Keyring) Account() AccountID {
	return k.account
}

// Sign builds a fully signed extrinsic envelope for the given call and nonce.
func (k *Keyring) Sign(call Call, nonce uint32, genesisHash common.Hash) (*Extrinsic, error) {
	payload, err := SigningPayload(call, nonce, genesisHash)
	if err != nil {
		return nil, err
	}
	sig, err := k.keypair.Sign(payload)
	if err != nil {
		return nil, err
	}
	sigPayload := &SignaturePayload{
		Signer: k.account,
		Nonce:  nonce,
	}
	copy(sigPayload.Signature[:], sig)
	return &Extrinsic{
		Version:   ExtrinsicVersion,
		Signature: sigPayload,
		Call:      call,
	}, nil
}

// VerifyExtrinsic checks the envelope signature against the signer account
// and returns the authenticated origin.
func VerifyExtrinsic(ext *Extrinsic, genesisHash common.Hash) (AccountID, error) {
	if !ext.IsSigned() {
		return AccountID{}, ErrUnsignedCall
	}
	payload, err := SigningPayload(ext.Call, ext.Signature.Nonce, genesisHash)
	if err != nil {
		return AccountID{}, err
	}
	pub, err := ed25519.NewPublicKey(ext.Signature.Signer[:])
	if err != nil {
		return AccountID{}, err
	}
	ok, err := ed25519.Verify(pub, payload, ext.Signature.Signature[:])
	if err != nil {
		return AccountID{}, err
	}
	if !ok {
		return AccountID{}, ErrBadSignature
	}
	return ext.Signature.Signer, nil
}
