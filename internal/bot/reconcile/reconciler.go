package reconcile

import (
	"context"
	"time"

	"github.com/giatha0/basee/internal/bot/model"
	"github.com/giatha0/basee/internal/bot/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ERC20 Transfer(address,address,uint256) event signature.
var transferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

const retryDelay = 500 * time.Millisecond

// ReceiptFetcher is the slice of the node client the reconciler needs.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Reconciler merges webhook-supplied transfers with transfers decoded from
// the transaction receipt. Some webhook delivery paths omit all or all-but-one
// token leg of a swap; without the receipt fallback those swaps would be
// misclassified as non-swaps.
type Reconciler struct {
	node ReceiptFetcher
	tl   *zap.Logger
}

func New(node ReceiptFetcher, logger *zap.Logger) *Reconciler {
	return &Reconciler{node: node, tl: logger}
}

// Reconcile returns the canonical transfer list for txHash. If the webhook
// already reported >=2 token transfers it is trusted as-is and no receipt is
// fetched. Otherwise the receipt is fetched with exactly one retry after
// 500ms; if both attempts fail the webhook data is used alone rather than
// blocking the event on node availability.
func (r *Reconciler) Reconcile(ctx context.Context, txHash string, activity []model.Transfer) []model.Transfer {
	tokenCount := 0
	for _, t := range activity {
		if t.IsToken() {
			tokenCount++
		}
	}
	if tokenCount >= 2 {
		return activity
	}

	receipt := r.fetchReceipt(ctx, txHash)
	if receipt == nil {
		return activity
	}

	decoded := decodeTokenTransfers(receipt)
	if len(decoded) > 0 {
		monitor.ReceiptFallbacks.Inc()
		activity = append(activity, decoded...)
	}
	return activity
}

func (r *Reconciler) fetchReceipt(ctx context.Context, txHash string) *types.Receipt {
	hash := common.HexToHash(txHash)

	receipt, err := r.node.TransactionReceipt(ctx, hash)
	if err == nil {
		return receipt
	}

	r.tl.Warn("⏳ Receipt fetch failed, retrying once",
		zap.String("tx", txHash), zap.Error(err))

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
		return nil
	}

	receipt, err = r.node.TransactionReceipt(ctx, hash)
	if err != nil {
		r.tl.Warn("❌ Receipt retry failed, using webhook data only",
			zap.String("tx", txHash), zap.Error(err))
		return nil
	}
	return receipt
}

// decodeTokenTransfers turns every ERC20 Transfer log into a synthetic token
// transfer record. Topic-encoded addresses are taken as the last 20 bytes of
// the 32-byte topic with no padding validation, matching upstream behavior.
func decodeTokenTransfers(receipt *types.Receipt) []model.Transfer {
	var transfers []model.Transfer
	for _, lg := range receipt.Logs {
		if len(lg.Topics) < 3 || lg.Topics[0] != transferTopic {
			continue
		}
		from := common.BytesToAddress(lg.Topics[1].Bytes()).Hex()
		to := common.BytesToAddress(lg.Topics[2].Bytes()).Hex()

		transfers = append(transfers, model.Transfer{
			Category:     model.CategoryToken,
			FromAddress:  from,
			ToAddress:    to,
			TokenAddress: lg.Address.Hex(),
			RawContract:  model.RawContract{Address: lg.Address.Hex()},
		})
	}
	return transfers
}
