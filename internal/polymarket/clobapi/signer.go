package clobapi

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const clobAuthMessage = "This message attests that I control the given wallet"

var (
	authDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)
	exchangeDomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	clobAuthTypeHash = ethcrypto.Keccak256(
		[]byte("ClobAuth(address address,string timestamp,uint256 nonce,string message)"),
	)
	orderTypeHash = ethcrypto.Keccak256(
		[]byte("Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"),
	)
)

// Signer produces EIP-712 signatures for CLOB auth messages and orders.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewSigner wraps a secp256k1 key for the given chain (137 Polygon, 80002 Amoy).
func NewSigner(key *ecdsa.PrivateKey, chainID int64) *Signer {
	return &Signer{
		key:     key,
		address: ethcrypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
	}
}

// Address returns the address derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignClobAuth signs the L1 ClobAuth message used to create or derive API
// credentials.
func (s *Signer) SignClobAuth(timestamp string, nonce int64) (string, error) {
	domain := ethcrypto.Keccak256(
		authDomainTypeHash,
		ethcrypto.Keccak256([]byte("ClobAuthDomain")),
		ethcrypto.Keccak256([]byte("1")),
		uint256Bytes(s.chainID),
	)
	structHash := ethcrypto.Keccak256(
		clobAuthTypeHash,
		common.LeftPadBytes(s.address.Bytes(), 32),
		ethcrypto.Keccak256([]byte(timestamp)),
		uint256Bytes(big.NewInt(nonce)),
		ethcrypto.Keccak256([]byte(clobAuthMessage)),
	)
	return s.sign(typedDataDigest(domain, structHash))
}

// SignOrder signs an order against the exchange contract that will settle it.
func (s *Signer) SignOrder(order *Order, exchange common.Address) (string, error) {
	domain := ethcrypto.Keccak256(
		exchangeDomainTypeHash,
		ethcrypto.Keccak256([]byte("Polymarket CTF Exchange")),
		ethcrypto.Keccak256([]byte("1")),
		uint256Bytes(s.chainID),
		common.LeftPadBytes(exchange.Bytes(), 32),
	)
	return s.sign(typedDataDigest(domain, order.structHash()))
}

func (o *Order) structHash() []byte {
	return ethcrypto.Keccak256(
		orderTypeHash,
		uint256Bytes(o.Salt),
		common.LeftPadBytes(o.Maker.Bytes(), 32),
		common.LeftPadBytes(o.Signer.Bytes(), 32),
		common.LeftPadBytes(o.Taker.Bytes(), 32),
		uint256Bytes(o.TokenID),
		uint256Bytes(o.MakerAmount),
		uint256Bytes(o.TakerAmount),
		uint256Bytes(o.Expiration),
		uint256Bytes(o.Nonce),
		uint256Bytes(o.FeeRateBps),
		uint256Bytes(big.NewInt(int64(o.Side.index()))),
		uint256Bytes(big.NewInt(int64(o.SignatureType))),
	)
}

// typedDataDigest is keccak256("\x19\x01" || domainSeparator || structHash).
func typedDataDigest(domainSeparator, structHash []byte) []byte {
	return ethcrypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash)
}

func (s *Signer) sign(digest []byte) (string, error) {
	sig, err := ethcrypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("sign digest: %w", err)
	}
	// go-ethereum returns v in {0,1}; the exchange expects {27,28}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig), nil
}

func uint256Bytes(n *big.Int) []byte {
	if n == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(n.Bytes(), 32)
}
