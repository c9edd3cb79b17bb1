package constant

const (
	DefaultKlineInterval    = "1m"
	DefaultVolatilityWindow = 20

	MarketContextCacheKeyPrefix = "market_context"
)
