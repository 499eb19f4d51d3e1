package zerox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/giatha0/basee/internal/bot/config"
	"github.com/giatha0/basee/pkg/httpclient"

	"go.uber.org/zap"
)

// Client talks to the 0x swap-aggregation API. Quotes are time-sensitive: the
// request carries a short hard timeout and is never retried, since a stale
// quote worsens execution price more than a missed one.
type Client struct {
	baseURL    string
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewClient(cfg config.ZeroxConfig, logger *zap.Logger) *Client {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
		RateLimit: cfg.RateLimit,
		Headers: map[string]string{
			"0x-api-key": cfg.APIKey,
			"0x-version": "v2",
		},
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpclient.NewHTTPClient(httpCfg, logger),
		logger:     logger,
	}
}

// GetQuote fetches an executable allowance-holder quote. A quote with no
// available liquidity is an error: there is no route to buy the asset.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	url := fmt.Sprintf("%s/swap/allowance-holder/quote", c.baseURL)
	params := map[string]string{
		"chainId":     strconv.FormatInt(req.ChainID, 10),
		"sellToken":   req.SellToken,
		"buyToken":    req.BuyToken,
		"sellAmount":  req.SellAmount,
		"taker":       req.Taker,
		"slippageBps": strconv.Itoa(req.SlippageBps),
	}

	var quote Quote
	if err := c.httpClient.Get(ctx, url, params, &quote); err != nil {
		return nil, fmt.Errorf("fetch 0x quote failed, buyToken: %s, error: %w", req.BuyToken, err)
	}

	if !quote.LiquidityAvailable {
		return nil, fmt.Errorf("no route for buyToken %s: liquidity unavailable", req.BuyToken)
	}
	if quote.Transaction.To == "" {
		return nil, fmt.Errorf("0x quote for %s carried no transaction", req.BuyToken)
	}

	return &quote, nil
}
