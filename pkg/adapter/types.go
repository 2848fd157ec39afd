package adapter

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// CallReport captures adapter call metadata.
type CallReport struct {
	Adapter   string  `json:"adapter"`
	Model     string  `json:"model"`
	Usage     Usage   `json:"usage"`
	CostUSD   float64 `json:"cost_usd,omitempty"`
	Estimated bool    `json:"estimated,omitempty"`
	Transient bool    `json:"transient,omitempty"`
	Error     string  `json:"error,omitempty"`
}
