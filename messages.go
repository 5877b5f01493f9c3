package main

import (
	"dapp-console/apps"
	"dapp-console/config"
	"dapp-console/lifecycle"
	"dapp-console/rpc"
	"dapp-console/session"

	"github.com/ethereum/go-ethereum/common"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	what string
}

// clearClipboardMsg clears clipboard feedback
type clearClipboardMsg struct{}

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// rpcConnectedMsg contains result of wallet endpoint connection attempt
type rpcConnectedMsg struct {
	client  *rpc.Client
	chainID uint64
	err     error
}

// walletConnectedMsg is the outcome of an interactive account request
type walletConnectedMsg struct {
	account common.Address
	err     error
}

// reconciledMsg is the outcome of the silent startup account check
type reconciledMsg struct {
	err error
}

// accountChangedMsg carries a transition of the active account
type accountChangedMsg struct {
	change session.Change
}

// followStoppedMsg reports that account polling ended
type followStoppedMsg struct {
	err error
}

// balanceLoadedMsg contains the native balance of the active account
type balanceLoadedMsg struct {
	d rpc.AccountDetails
}

// refreshedMsg reports that a page's fields were reread
type refreshedMsg struct {
	page config.Page
	err  error
}

// lookupMsg is the result of a registry lookup
type lookupMsg struct {
	address string
	name    string
	err     error
}

// submittedMsg is the outcome of handing a write to the wallet. app is the
// binding the write went through; results for a replaced binding are dropped.
type submittedMsg struct {
	page    config.Page
	app     *apps.App
	pending lifecycle.Pending
	err     error
}

// settledMsg is the final outcome of a broadcast write
type settledMsg struct {
	page    config.Page
	app     *apps.App
	pending lifecycle.Pending
	err     error
}

// tickMsg drives the periodic refresh of due fields
type tickMsg struct{}
