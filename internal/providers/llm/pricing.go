package llm

import "strings"

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

var modelPrices = map[string]Price{
	"gpt-4o":            {Input: 2.50, Output: 10.00},
	"gpt-4o-mini":       {Input: 0.15, Output: 0.60},
	"gpt-4.1":           {Input: 2.00, Output: 8.00},
	"gpt-4.1-mini":      {Input: 0.40, Output: 1.60},
	"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
	"claude-haiku-4-5":  {Input: 1.00, Output: 5.00},
	"claude-opus-4-1":   {Input: 15.00, Output: 75.00},
	"gemini-2.5-pro":    {Input: 1.25, Output: 10.00},
	"gemini-2.5-flash":  {Input: 0.30, Output: 2.50},
}

// PriceFor looks up the price of model. Dated snapshots (gpt-4o-2024-08-06,
// claude-sonnet-4-5-20250929) resolve to their base model.
func PriceFor(model string) (Price, bool) {
	model = strings.ToLower(strings.TrimSpace(model))
	if p, ok := modelPrices[model]; ok {
		return p, true
	}
	best := ""
	for name := range modelPrices {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return Price{}, false
	}
	return modelPrices[best], true
}

// Cost returns the USD cost of a call, and false when model is not priced.
func Cost(model string, inputTokens, outputTokens int64) (float64, bool) {
	p, ok := PriceFor(model)
	if !ok {
		return 0, false
	}
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000, true
}
