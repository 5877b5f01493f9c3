package helpers

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// EtherDecimals is the scale between wei and ether
const EtherDecimals = 18

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has too many decimal places")
	ErrAmountOverflow = errors.New("amount exceeds 256 bits")
)

// FormatUnits renders an integer amount of minor units as an exact decimal string
// with trailing zeros dropped. 1500000000000000000 at 18 decimals is "1.5".
func FormatUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// ParseUnits converts a human decimal string into minor units. It never rounds:
// more fractional digits than decimals is an error, as is anything that does not
// fit in a uint256.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	v := scaled.BigInt()
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

// FormatEther renders wei as ether
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// ParseEther converts an ether amount into wei
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, EtherDecimals)
}

// FormatETH formats Wei to ETH for display
func FormatETH(wei *big.Int) string {
	return FormatEther(wei) + " ETH"
}
