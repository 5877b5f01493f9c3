package rpc

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mdp/qrterminal/v3"
)

// PaymentURI builds an EIP-681 URI that opens a transfer to addr in a phone wallet
func PaymentURI(addr common.Address, chainID uint64) string {
	if chainID == 0 {
		return "ethereum:" + addr.Hex()
	}
	return fmt.Sprintf("ethereum:%s@%d", addr.Hex(), chainID)
}

// GenerateQRCode renders text as a half-block QR code for the terminal
func GenerateQRCode(text string) string {
	var sb strings.Builder
	qrterminal.GenerateWithConfig(text, qrterminal.Config{
		Level:          qrterminal.L,
		Writer:         &sb,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
	return strings.TrimRight(sb.String(), "\n")
}
