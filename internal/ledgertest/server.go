package ledgertest

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// TxArgs is the eth_call / eth_sendTransaction argument object
type TxArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
	Value *hexutil.Big    `json:"value"`
}

func (a TxArgs) msg() ethereum.CallMsg {
	var m ethereum.CallMsg
	if a.From != nil {
		m.From = *a.From
	}
	m.To = a.To
	switch {
	case a.Input != nil:
		m.Data = *a.Input
	case a.Data != nil:
		m.Data = *a.Data
	}
	if a.Value != nil {
		m.Value = (*big.Int)(a.Value)
	}
	return m
}

type ethAPI struct {
	l *Ledger
}

func (api *ethAPI) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return api.l.RequestAccounts(ctx)
}

func (api *ethAPI) Accounts(ctx context.Context) ([]common.Address, error) {
	return api.l.Accounts(ctx)
}

func (api *ethAPI) ChainId() hexutil.Uint64 {
	return 1337
}

func (api *ethAPI) Call(ctx context.Context, args TxArgs, block string) (hexutil.Bytes, error) {
	return api.l.CallContract(ctx, args.msg(), nil)
}

func (api *ethAPI) SendTransaction(ctx context.Context, args TxArgs) (common.Hash, error) {
	return api.l.SendTransaction(ctx, args.msg())
}

func (api *ethAPI) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, err := api.l.TransactionReceipt(ctx, hash)
	if err == ethereum.NotFound {
		return nil, nil
	}
	return r, err
}

// Server exposes the ledger over an in-process JSON-RPC server
func Server(l *Ledger) *rpc.Server {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{l: l}); err != nil {
		panic(err)
	}
	return srv
}

// Dial connects an RPC client to the ledger without a network
func Dial(l *Ledger) *rpc.Client {
	return rpc.DialInProc(Server(l))
}
