package domain

// ChatRequest represents a playground chat prompt
type ChatRequest struct {
	Prompt      string   `json:"prompt" label:"Prompt" validate:"required,max=8000"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature" label:"Temperature" validate:"omitempty,min=0,max=1"`
}

// ChatResponse is the playground reply
type ChatResponse struct {
	Response   string `json:"response"`
	Message    string `json:"message,omitempty"`
	Model      string `json:"model,omitempty"`
	Provider   string `json:"provider,omitempty"`
	TokensUsed int    `json:"tokensUsed,omitempty"`
	LatencyMs  int64  `json:"latencyMs,omitempty"`
}
