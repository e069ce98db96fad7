package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrTxNotFound is returned when a transaction is not (yet) visible on
// chain. Callers may retry after propagation.
var ErrTxNotFound = errors.New("transaction not found")

// TxInfo is the slice of an on-chain transaction the deposit verifier needs:
// who paid the fee (first signer) and per-account lamport balance deltas.
type TxInfo struct {
	Signature string
	FeePayer  string
	Accounts  []string
	deltas    map[string]int64
}

// NewTxInfo builds a TxInfo from explicit balance deltas. Used by chain
// client fakes; the real client populates it from RPC metadata.
func NewTxInfo(signature, feePayer string, deltas map[string]int64) *TxInfo {
	info := &TxInfo{
		Signature: signature,
		FeePayer:  feePayer,
		deltas:    make(map[string]int64, len(deltas)),
	}
	for addr, delta := range deltas {
		info.Accounts = append(info.Accounts, addr)
		info.deltas[addr] = delta
	}
	return info
}

// BalanceDelta returns the lamport delta for an account within the
// transaction, zero if the account was not involved.
func (t *TxInfo) BalanceDelta(account string) int64 {
	return t.deltas[account]
}

// Involved reports whether the account was part of the transaction.
func (t *TxInfo) Involved(account string) bool {
	_, ok := t.deltas[account]
	return ok
}

// Client wraps a Solana RPC endpoint and the custodial escrow keypair.
// Settlement transfers are plain system-program transfers signed by the
// custodial key; no on-chain program is involved.
type Client struct {
	rpc       *rpc.Client
	custodial solanago.PrivateKey
}

// NewClient creates a chain client from an RPC endpoint and the custodial
// secret key in base58.
func NewClient(endpoint, custodialSecretKey string) (*Client, error) {
	key, err := solanago.PrivateKeyFromBase58(custodialSecretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid custodial key: %w", err)
	}
	return &Client{
		rpc:       rpc.New(endpoint),
		custodial: key,
	}, nil
}

// EscrowAddress returns the custodial escrow account address players
// deposit into.
func (c *Client) EscrowAddress() string {
	return c.custodial.PublicKey().String()
}

// GetTransaction fetches a confirmed transaction by signature and extracts
// the fee payer and balance deltas. Returns ErrTxNotFound if the signature
// is malformed or the transaction has not propagated.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TxInfo, error) {
	sig, err := solanago.SignatureFromBase58(signature)
	if err != nil {
		return nil, ErrTxNotFound
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solanago.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrTxNotFound
		}
		return nil, fmt.Errorf("rpc getTransaction: %w", err)
	}
	if out == nil || out.Meta == nil {
		return nil, ErrTxNotFound
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(tx.Message.AccountKeys) == 0 {
		return nil, fmt.Errorf("transaction has no accounts")
	}

	info := &TxInfo{
		Signature: signature,
		FeePayer:  tx.Message.AccountKeys[0].String(),
		deltas:    make(map[string]int64, len(tx.Message.AccountKeys)),
	}
	for i, key := range tx.Message.AccountKeys {
		addr := key.String()
		info.Accounts = append(info.Accounts, addr)
		if i < len(out.Meta.PreBalances) && i < len(out.Meta.PostBalances) {
			info.deltas[addr] = int64(out.Meta.PostBalances[i]) - int64(out.Meta.PreBalances[i])
		}
	}

	return info, nil
}

// SubmitTransfer sends lamports from the custodial escrow account to the
// destination and waits for network confirmation before returning the
// transaction signature.
func (c *Client) SubmitTransfer(ctx context.Context, to string, lamports uint64) (string, error) {
	dest, err := solanago.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid destination address: %w", err)
	}

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("latest blockhash: %w", err)
	}

	from := c.custodial.PublicKey()
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{
			system.NewTransferInstruction(lamports, from, dest).Build(),
		},
		recent.Value.Blockhash,
		solanago.TransactionPayer(from),
	)
	if err != nil {
		return "", fmt.Errorf("build transfer: %w", err)
	}

	if _, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(from) {
			return &c.custodial
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign transfer: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("send transfer: %w", err)
	}

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

// waitForConfirmation polls signature status until the transfer reaches
// confirmed commitment or the timeout elapses.
func (c *Client) waitForConfirmation(ctx context.Context, sig solanago.Signature) error {
	deadline := time.Now().Add(ConfirmTimeout)

	for time.Now().Before(deadline) {
		out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err == nil && out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			st := out.Value[0]
			if st.Err != nil {
				return fmt.Errorf("transfer %s failed on chain: %v", sig, st.Err)
			}
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ConfirmPollInterval):
		}
	}

	return fmt.Errorf("transfer %s not confirmed within %s", sig, ConfirmTimeout)
}
