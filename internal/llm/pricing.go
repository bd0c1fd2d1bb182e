package llm

// EstimateCost prices a request in USD. ok is false for models without a
// price, which includes everything routed through OpenRouter.
func EstimateCost(modelID string, inputTokens, outputTokens int) (usd float64, ok bool) {
	c, ok := pricePerMTok[modelID]
	if !ok {
		return 0, false
	}
	return (float64(inputTokens)*c[0] + float64(outputTokens)*c[1]) / 1_000_000, true
}

// pricePerMTok is input and output USD per million tokens for the models
// the provider defaults resolve to.
var pricePerMTok = map[string][2]float64{
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-sonnet-4-5-20250929": {3, 15},
	"claude-opus-4-1-20250805":   {15, 75},

	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1-mini": {0.4, 1.6},

	"gemini-2.0-flash": {0.1, 0.4},
	"gemini-2.5-pro":   {1.25, 10},
}
