package chainerr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Kind classifies a failure crossing the wallet or ledger boundary
type Kind int

const (
	// RpcError is a transport or network failure; nothing was broadcast.
	RpcError Kind = iota
	WalletUnavailable
	UserRejected
	Reverted
	DecodeError
	ConfirmationTimeout
	NoSignerAvailable
	InvalidCallShape
	AlreadyPending
)

var kindNames = map[Kind]string{
	RpcError:            "rpc error",
	WalletUnavailable:   "wallet unavailable",
	UserRejected:        "user rejected",
	Reverted:            "reverted",
	DecodeError:         "decode error",
	ConfirmationTimeout: "confirmation timeout",
	NoSignerAvailable:   "no signer available",
	InvalidCallShape:    "invalid call shape",
	AlreadyPending:      "already pending",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// EIP-1193 and geth JSON-RPC error codes
const (
	codeUserRejected  = 4001
	codeUnauthorized  = 4100
	codeExecutionFail = 3
)

// Error is the only error shape handed to display code
type Error struct {
	Kind   Kind
	Op     string // connect, read, write, wait
	Reason string // revert reason or short detail
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(e.Reason)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, chainerr.ErrUserRejected).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Reason == "" && t.Err == nil && t.Kind == e.Kind
}

// Message renders the single human-readable line shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case WalletUnavailable:
		return "No wallet endpoint available. Configure an RPC URL in settings."
	case UserRejected:
		return "Request rejected in the wallet."
	case Reverted:
		if e.Reason != "" {
			return "Transaction reverted: " + e.Reason
		}
		return "Transaction reverted by the contract."
	case DecodeError:
		return "Contract response could not be decoded. Check the contract address and ABI."
	case ConfirmationTimeout:
		return "Confirmation not observed in time. Outcome unknown, check again later."
	case NoSignerAvailable:
		return "No authorized account. Connect a wallet first."
	case InvalidCallShape:
		if e.Reason != "" {
			return "Invalid call: " + e.Reason
		}
		return "Invalid call."
	case AlreadyPending:
		return "A transaction is already pending."
	default:
		if e.Err != nil {
			return "Network error: " + e.Err.Error()
		}
		return "Network error."
	}
}

// Retryable reports whether resubmitting the same call unchanged is safe.
func (e *Error) Retryable() bool {
	if e.Op == "wait" {
		// the write was already broadcast
		return false
	}
	return e.Kind == RpcError || e.Kind == UserRejected
}

// Ambiguous reports whether the underlying write may still settle.
func (e *Error) Ambiguous() bool {
	return e.Kind == ConfirmationTimeout
}

// Sentinels for errors.Is
var (
	ErrWalletUnavailable   = &Error{Kind: WalletUnavailable}
	ErrUserRejected        = &Error{Kind: UserRejected}
	ErrRpc                 = &Error{Kind: RpcError}
	ErrReverted            = &Error{Kind: Reverted}
	ErrDecode              = &Error{Kind: DecodeError}
	ErrConfirmationTimeout = &Error{Kind: ConfirmationTimeout}
	ErrNoSigner            = &Error{Kind: NoSignerAvailable}
	ErrInvalidCallShape    = &Error{Kind: InvalidCallShape}
	ErrAlreadyPending      = &Error{Kind: AlreadyPending}
)

// New builds an Error of the given kind.
func New(kind Kind, op, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err, or RpcError for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return RpcError
}

// Normalize converts a raw transport error into an *Error tagged with op.
// Already normalized errors pass through with their kind preserved.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" {
			cp := *e
			cp.Op = op
			return &cp
		}
		return e
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected:
			return &Error{Kind: UserRejected, Op: op, Err: err}
		case codeUnauthorized:
			return &Error{Kind: NoSignerAvailable, Op: op, Err: err}
		case codeExecutionFail:
			return &Error{Kind: Reverted, Op: op, Reason: RevertReason(err), Err: err}
		}
	}
	if reason, ok := revertData(err); ok {
		return &Error{Kind: Reverted, Op: op, Reason: reason, Err: err}
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return &Error{Kind: Reverted, Op: op, Reason: RevertReason(err), Err: err}
	}
	if strings.Contains(strings.ToLower(err.Error()), "user rejected") ||
		strings.Contains(strings.ToLower(err.Error()), "user denied") {
		return &Error{Kind: UserRejected, Op: op, Err: err}
	}
	if op == "wait" && errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ConfirmationTimeout, Op: op, Err: err}
	}
	return &Error{Kind: RpcError, Op: op, Err: err}
}

// RevertReason extracts the Error(string) reason from an execution failure.
// Falls back to the text after "execution reverted: " when no data is attached.
func RevertReason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == Reverted && e.Reason != "" {
		return e.Reason
	}
	if reason, ok := revertData(err); ok {
		return reason
	}
	msg := err.Error()
	if i := strings.Index(msg, "execution reverted: "); i >= 0 {
		return strings.TrimSpace(msg[i+len("execution reverted: "):])
	}
	return ""
}

func revertData(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	raw, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decErr := hexutil.Decode(raw)
	if decErr != nil {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return "", true
	}
	return reason, true
}
