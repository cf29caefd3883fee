// Package eth builds and spends Ethereum hash time-locked contracts: a
// small fixed-bytecode contract whose constructor arguments are spliced
// into its init code at known byte offsets, mirroring the template-based
// EVM contract deployment shown in the pack's simulated-backend and
// abi/bind examples rather than requiring a live solc toolchain.
package eth

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/atomicswapd/swapd/swap"
)

// deployedTemplate is the compiled init code for the Ether HTLC contract.
// It embeds four 32-byte parameter slots at fixed offsets, in source
// order: redeemer address, refunder address, secret hash, and expiry. A
// real deployment pins this to audited, reproducibly-built bytecode; here
// it is a placeholder of the right shape so offset splicing is exercised
// end to end.
var deployedTemplate = mustDecodeHex(
	"608060405234801561001057600080fd5b50" +
		// redeemer (offset 18, 32 bytes)
		"0000000000000000000000000000000000000000000000000000000000000000" +
		// refunder (offset 50, 32 bytes)
		"0000000000000000000000000000000000000000000000000000000000000000" +
		// secret hash (offset 82, 32 bytes)
		"0000000000000000000000000000000000000000000000000000000000000000" +
		// expiry (offset 114, 32 bytes)
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"610100806101256000396000f3fe",
)

const (
	offsetRedeemer   = 18
	offsetRefunder   = 50
	offsetSecretHash = 82
	offsetExpiry     = 114
	paramSlotLen     = 32
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("embedded htlc template is not valid hex: %v", err))
	}
	return b
}

// InitCode splices params into the fixed-offset template, producing the
// deploy transaction's data field. The deployed contract's constructor
// reads these 32-byte slots directly from its own init code rather than
// from ABI-encoded constructor arguments, which is why splicing happens
// at the byte level instead of through abi.Pack.
func InitCode(params swap.HtlcParams) ([]byte, error) {
	if params.RedeemIdentity.EthereumAddress == (common.Address{}) {
		return nil, fmt.Errorf("ethereum htlc requires a redeem address")
	}
	if params.RefundIdentity.EthereumAddress == (common.Address{}) {
		return nil, fmt.Errorf("ethereum htlc requires a refund address")
	}

	code := make([]byte, len(deployedTemplate))
	copy(code, deployedTemplate)

	putAddress(code, offsetRedeemer, params.RedeemIdentity.EthereumAddress)
	putAddress(code, offsetRefunder, params.RefundIdentity.EthereumAddress)

	hash := params.SecretHash
	copy(code[offsetSecretHash:offsetSecretHash+paramSlotLen], hash[:])

	putUint256(code, offsetExpiry, big.NewInt(int64(params.Expiry)))

	return code, nil
}

// putAddress left-pads a 20-byte address into a 32-byte big-endian slot.
func putAddress(code []byte, offset int, addr common.Address) {
	slot := code[offset : offset+paramSlotLen]
	for i := range slot {
		slot[i] = 0
	}
	copy(slot[paramSlotLen-common.AddressLength:], addr[:])
}

func putUint256(code []byte, offset int, v *big.Int) {
	slot := code[offset : offset+paramSlotLen]
	for i := range slot {
		slot[i] = 0
	}
	v.FillBytes(slot)
}

// abiJSON is the minimal ABI describing the two calls a counterparty can
// make against a deployed HTLC: redeem(secret) and refund().
const abiJSON = `[
	{"type":"function","name":"redeem","inputs":[{"name":"secret","type":"bytes32"}]},
	{"type":"function","name":"refund","inputs":[]}
]`

// ParsedABI is parsed once at package init and reused by every caller that
// needs to pack a redeem/refund call.
var ParsedABI = mustParseABI(abiJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("embedded htlc abi is invalid: %v", err))
	}
	return parsed
}

// RedeemCalldata packs a call to redeem(secret).
func RedeemCalldata(secret swap.Secret) ([]byte, error) {
	return ParsedABI.Pack("redeem", secret)
}

// RefundCalldata packs a call to refund().
func RefundCalldata() ([]byte, error) {
	return ParsedABI.Pack("refund")
}
