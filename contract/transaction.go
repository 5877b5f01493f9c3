package contract

import (
	"context"
	"errors"
	"time"

	"dapp-console/chainerr"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultPollInterval is the receipt polling period
const DefaultPollInterval = 2 * time.Second

type receiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Transaction is a broadcast write. It cannot be cancelled; only waiting on it can.
type Transaction struct {
	Hash   common.Hash
	Method string
	From   common.Address

	receipts receiptSource
	poll     time.Duration
	logger   *log.Logger
}

// Wait polls until the transaction is included or ctx is done. A failed receipt
// is Reverted. Receipt lookups that fail keep the poll going: the write is
// already broadcast, so only the deadline ends the wait, as ConfirmationTimeout.
func (t *Transaction) Wait(ctx context.Context) (*types.Receipt, error) {
	poll := t.poll
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := t.receipts.TransactionReceipt(ctx, t.Hash)
		if receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, chainerr.New(chainerr.Reverted, "wait", "")
			}
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			lastErr = err
			if t.logger != nil {
				t.logger.Warn("Receipt lookup failed, still polling", "tx", t.Hash.Hex(), "err", err)
			}
		}
		select {
		case <-ctx.Done():
			return nil, t.timeout(ctx, lastErr)
		case <-ticker.C:
		}
	}
}

func (t *Transaction) timeout(ctx context.Context, lastErr error) error {
	if lastErr != nil {
		return chainerr.Wrap(chainerr.ConfirmationTimeout, "wait", errors.Join(ctx.Err(), lastErr))
	}
	return chainerr.Wrap(chainerr.ConfirmationTimeout, "wait", ctx.Err())
}
