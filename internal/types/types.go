package types

// GenerateAppInput is the single request accepted by the generation gateway.
type GenerateAppInput struct {
	Prompt string `json:"prompt" binding:"required"` // Natural language description of the desired app
}

// GenerateAppOutput is the structure expected from the LLM.
type GenerateAppOutput struct {
	Code string `json:"code"` // Complete, self-contained HTML document
}
