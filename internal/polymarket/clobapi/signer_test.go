package clobapi

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known throwaway key (hardhat account #0).
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return NewSigner(key, 137)
}

func recoverAddress(t *testing.T, digest []byte, sigHex string) common.Address {
	t.Helper()
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])

	sig[64] -= 27
	pub, err := ethcrypto.SigToPub(digest, sig)
	require.NoError(t, err)
	return ethcrypto.PubkeyToAddress(*pub)
}

func TestSignerAddress(t *testing.T) {
	s := testSigner(t)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", s.Address().Hex())
}

func TestSignClobAuthRecoversSigner(t *testing.T) {
	s := testSigner(t)

	sig, err := s.SignClobAuth("1700000000", 0)
	require.NoError(t, err)

	domain := ethcrypto.Keccak256(
		authDomainTypeHash,
		ethcrypto.Keccak256([]byte("ClobAuthDomain")),
		ethcrypto.Keccak256([]byte("1")),
		uint256Bytes(big.NewInt(137)),
	)
	structHash := ethcrypto.Keccak256(
		clobAuthTypeHash,
		common.LeftPadBytes(s.Address().Bytes(), 32),
		ethcrypto.Keccak256([]byte("1700000000")),
		uint256Bytes(big.NewInt(0)),
		ethcrypto.Keccak256([]byte(clobAuthMessage)),
	)

	assert.Equal(t, s.Address(), recoverAddress(t, typedDataDigest(domain, structHash), sig))
}

func TestSignOrderRecoversSigner(t *testing.T) {
	s := testSigner(t)
	exchange, err := exchangeAddress(137, false)
	require.NoError(t, err)

	order := &Order{
		Salt:          big.NewInt(12345),
		Maker:         s.Address(),
		Signer:        s.Address(),
		TokenID:       big.NewInt(987654321),
		MakerAmount:   big.NewInt(5_500_000),
		TakerAmount:   big.NewInt(10_000_000),
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(0),
		FeeRateBps:    big.NewInt(0),
		Side:          Buy,
		SignatureType: SignatureEOA,
	}

	sig, err := s.SignOrder(order, exchange)
	require.NoError(t, err)

	domain := ethcrypto.Keccak256(
		exchangeDomainTypeHash,
		ethcrypto.Keccak256([]byte("Polymarket CTF Exchange")),
		ethcrypto.Keccak256([]byte("1")),
		uint256Bytes(big.NewInt(137)),
		common.LeftPadBytes(exchange.Bytes(), 32),
	)
	assert.Equal(t, s.Address(), recoverAddress(t, typedDataDigest(domain, order.structHash()), sig))

	// side is part of the signed struct
	sell := *order
	sell.Side = Sell
	assert.NotEqual(t, order.structHash(), sell.structHash())
}
