package contract

import (
	"fmt"
	"os"
	"strings"

	"dapp-console/contract/abis"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Descriptor is an immutable contract address plus its interface description
type Descriptor struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// NewDescriptor parses abiJSON for the contract at address
func NewDescriptor(name, address, abiJSON string) (Descriptor, error) {
	if !common.IsHexAddress(address) {
		return Descriptor{}, fmt.Errorf("invalid contract address %q", address)
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return Descriptor{}, fmt.Errorf("parse abi: %w", err)
	}
	return Descriptor{
		Name:    name,
		Address: common.HexToAddress(address),
		ABI:     parsed,
	}, nil
}

// LoadDescriptor reads the ABI from path, or uses the bundled ABI for kind when path is empty
func LoadDescriptor(name, kind, address, path string) (Descriptor, error) {
	if path == "" {
		bundled, ok := Bundled(kind)
		if !ok {
			return Descriptor{}, fmt.Errorf("no bundled abi for kind %q", kind)
		}
		return NewDescriptor(name, address, bundled)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read abi: %w", err)
	}
	return NewDescriptor(name, address, string(raw))
}

// Bundled returns the embedded ABI for a contract kind
func Bundled(kind string) (string, bool) {
	switch kind {
	case "registry":
		return abis.Registry, true
	case "escrow":
		return abis.Escrow, true
	case "counter":
		return abis.Counter, true
	}
	return "", false
}

// Method looks up a callable method by name
func (d Descriptor) Method(name string) (abi.Method, bool) {
	m, ok := d.ABI.Methods[name]
	return m, ok
}

// IsPayable reports whether method accepts an attached native value
func (d Descriptor) IsPayable(name string) bool {
	m, ok := d.Method(name)
	return ok && m.IsPayable()
}
