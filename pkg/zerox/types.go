package zerox

// NativeETH is the 0x sentinel for the chain's native asset.
const NativeETH = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

type QuoteRequest struct {
	ChainID     int64
	SellToken   string
	BuyToken    string
	SellAmount  string // wei
	Taker       string
	SlippageBps int
}

// Quote is the allowance-holder v2 quote response, reduced to the fields the
// executor consumes.
type Quote struct {
	LiquidityAvailable bool             `json:"liquidityAvailable"`
	BuyToken           string           `json:"buyToken"`
	SellToken          string           `json:"sellToken"`
	BuyAmount          string           `json:"buyAmount"`
	SellAmount         string           `json:"sellAmount"`
	Transaction        QuoteTransaction `json:"transaction"`
}

// QuoteTransaction is the unsigned funding transaction descriptor.
type QuoteTransaction struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
	Value    string `json:"value"`
}
