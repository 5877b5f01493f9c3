// Package abis holds the interface descriptions of the three bundled contracts.
package abis

import _ "embed"

var (
	//go:embed registry.json
	Registry string

	//go:embed escrow.json
	Escrow string

	//go:embed counter.json
	Counter string
)
