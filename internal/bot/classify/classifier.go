package classify

import (
	"strings"

	"github.com/giatha0/basee/internal/bot/model"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// Stats carries the deduplicated per-side counts for diagnostic logging when
// classification rejects a transaction.
type Stats struct {
	UniqueOut int
	UniqueIn  int
}

// Classifier applies the swap heuristic: a transaction is copied only when
// exactly one unique token left the watched wallet and exactly one unique
// token arrived. Anything touching more assets per side is disproportionately
// likely to be a batched or obfuscated bundle, so missed genuine swaps are
// accepted in exchange for never copying an ambiguous one.
type Classifier struct {
	target    string
	blacklist map[string]struct{}
}

func New(targetWallet string, blacklist []string) *Classifier {
	bl := make(map[string]struct{}, len(blacklist))
	for _, addr := range blacklist {
		bl[strings.ToLower(addr)] = struct{}{}
	}
	return &Classifier{
		target:    strings.ToLower(targetWallet),
		blacklist: bl,
	}
}

// Classify is a pure function of the reconciled transfer list. It returns nil
// when the transaction is not a swap worth copying.
func (c *Classifier) Classify(activity []model.Transfer) (*model.SwapInfo, Stats) {
	var tokensOut, tokensIn []model.Transfer
	for _, t := range activity {
		if !t.IsToken() {
			continue
		}
		if strings.ToLower(t.FromAddress) == c.target {
			tokensOut = append(tokensOut, t)
		}
		if strings.ToLower(t.ToAddress) == c.target {
			tokensIn = append(tokensIn, t)
		}
	}

	// The webhook may report the same leg multiple times; collapse each side
	// to one representative record per unique contract address.
	uniqueOut := dedupeByContract(tokensOut)
	uniqueIn := dedupeByContract(tokensIn)

	stats := Stats{UniqueOut: len(uniqueOut), UniqueIn: len(uniqueIn)}

	if len(uniqueOut) != 1 || len(uniqueIn) != 1 {
		return nil, stats
	}

	tokenOut := uniqueOut[0]
	tokenIn := uniqueIn[0]

	tokenInAddress := tokenIn.ContractAddress()
	if tokenInAddress == "" || tokenInAddress == zeroAddress {
		// Native receipt is not a token swap worth copying.
		return nil, stats
	}

	if _, banned := c.blacklist[tokenInAddress]; banned {
		return nil, stats
	}

	return &model.SwapInfo{
		TokenIn:         tokenIn.Asset,
		TokenOut:        tokenOut.Asset,
		TokenInAddress:  tokenInAddress,
		TokenOutAddress: tokenOut.ContractAddress(),
		AmountIn:        tokenIn.Value,
		AmountOut:       tokenOut.Value,
	}, stats
}

func dedupeByContract(transfers []model.Transfer) []model.Transfer {
	seen := make(map[string]struct{}, len(transfers))
	var unique []model.Transfer
	for _, t := range transfers {
		addr := t.ContractAddress()
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		unique = append(unique, t)
	}
	return unique
}
