package types

import (
	"testing"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCall() Call {
	return Call{ModuleIndex: 2, FunctionIndex: 0, Args: []byte{1, 2, 3}}
}

func TestExtrinsicEncodeDecodeRoundTrip(t *testing.T) {
	keyring, err := NewKeyringFromSeed("//Alice")
	require.NoError(t, err)

	ext, err := keyring.Sign(testCall(), 7, common.Hash{1})
	require.NoError(t, err)

	encoded, err := ext.Encode()
	require.NoError(t, err)

	decoded, err := DecodeExtrinsic(encoded)
	require.NoError(t, err)
	assert.Equal(t, ext, decoded)
	assert.True(t, decoded.IsSigned())
	assert.Equal(t, uint32(7), decoded.Signature.Nonce)
}

func TestDecodeExtrinsicRejectsBadVersion(t *testing.T) {
	ext := &Extrinsic{Version: 3, Call: testCall()}
	encoded, err := ext.Encode()
	require.NoError(t, err)

	_, err = DecodeExtrinsic(encoded)
	assert.ErrorIs(t, err, ErrBadExtrinsicVersion)
}

func TestDecodeExtrinsicRejectsGarbage(t *testing.T) {
	_, err := DecodeExtrinsic([]byte{0xff})
	require.Error(t, err)
}

func TestVerifyExtrinsic(t *testing.T) {
	keyring, err := NewKeyringFromSeed("//Alice")
	require.NoError(t, err)
	genesisHash := common.Hash{42}

	ext, err := keyring.Sign(testCall(), 0, genesisHash)
	require.NoError(t, err)

	signer, err := VerifyExtrinsic(ext, genesisHash)
	require.NoError(t, err)
	assert.Equal(t, keyring.Account(), signer)
}

func TestVerifyExtrinsicRejectsTampering(t *testing.T) {
	keyring, err := NewKeyringFromSeed("//Alice")
	require.NoError(t, err)
	genesisHash := common.Hash{42}

	tampered, err := keyring.Sign(testCall(), 0, genesisHash)
	require.NoError(t, err)
	tampered.Call.Args = []byte{9, 9, 9}
	_, err = VerifyExtrinsic(tampered, genesisHash)
	assert.ErrorIs(t, err, ErrBadSignature)

	// a signature is bound to the chain identity
	crossChain, err := keyring.Sign(testCall(), 0, genesisHash)
	require.NoError(t, err)
	_, err = VerifyExtrinsic(crossChain, common.Hash{43})
	assert.ErrorIs(t, err, ErrBadSignature)

	unsigned := &Extrinsic{Version: ExtrinsicVersion, Call: testCall()}
	_, err = VerifyExtrinsic(unsigned, genesisHash)
	assert.ErrorIs(t, err, ErrUnsignedCall)
}

func TestKeyringIsDeterministic(t *testing.T) {
	a, err := NewKeyringFromSeed("//Alice")
	require.NoError(t, err)
	b, err := NewKeyringFromSeed("//Alice")
	require.NoError(t, err)
	c, err := NewKeyringFromSeed("//Bob")
	require.NoError(t, err)

	assert.Equal(t, a.Account(), b.Account())
	assert.NotEqual(t, a.Account(), c.Account())
}

func TestExtrinsicsRootCommitsToOrder(t *testing.T) {
	keyring, err := NewKeyringFromSeed("//Alice")
	require.NoError(t, err)

	first, err := keyring.Sign(testCall(), 0, common.Hash{})
	require.NoError(t, err)
	second, err := keyring.Sign(testCall(), 1, common.Hash{})
	require.NoError(t, err)

	rootA, err := ExtrinsicsRoot([]Extrinsic{*first, *second})
	require.NoError(t, err)
	rootB, err := ExtrinsicsRoot([]Extrinsic{*second, *first})
	require.NoError(t, err)
	assert.NotEqual(t, rootA, rootB)

	empty, err := ExtrinsicsRoot(nil)
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, empty)
}

func TestEventsRoundTrip(t *testing.T) {
	events := []Event{
		{Module: "System", Variant: "ExtrinsicSuccess", Payload: []byte{0}},
		{Module: "DiaOracle", Variant: "PriceFinalized", Payload: []byte{1, 2}},
	}
	encoded, err := EncodeEvents(events)
	require.NoError(t, err)

	decoded, err := DecodeEvents(encoded)
	require.NoError(t, err)
	assert.Equal(t, events, decoded)
}

func TestAccountIDFromBytes(t *testing.T) {
	_, err := AccountIDFromBytes(make([]byte, 31))
	require.Error(t, err)

	id, err := AccountIDFromBytes(make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000000", id.String())
}
