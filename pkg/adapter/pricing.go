package adapter

// ModelPricing is the USD price per 1K tokens.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k" json:"prompt_per_1k"`
	CompletionPer1K float64 `yaml:"completion_per_1k" json:"completion_per_1k"`
}

// Pricing maps adapter -> model -> pricing. A "default" model entry covers
// every model of that adapter without its own entry.
type Pricing map[string]map[string]ModelPricing

// Lookup returns the pricing for a model.
func (p Pricing) Lookup(adapterName, model string) (ModelPricing, bool) {
	if p == nil {
		return ModelPricing{}, false
	}
	if adapterPricing, ok := p[adapterName]; ok {
		if entry, ok := adapterPricing[model]; ok {
			return entry, true
		}
		if entry, ok := adapterPricing["default"]; ok {
			return entry, true
		}
	}
	return ModelPricing{}, false
}

// Estimate returns the USD cost of usage, and false when the model has no
// pricing.
func (p Pricing) Estimate(adapterName, model string, usage Usage) (float64, bool) {
	entry, ok := p.Lookup(adapterName, model)
	if !ok {
		return 0, false
	}
	promptCost := (float64(usage.PromptTokens) / 1000.0) * entry.PromptPer1K
	completionCost := (float64(usage.CompletionTokens) / 1000.0) * entry.CompletionPer1K
	return promptCost + completionCost, true
}
