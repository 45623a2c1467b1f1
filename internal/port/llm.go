package port

// LLM is the language-model chat backend.
type LLM interface {
	// Chat sends a prompt and returns the generated text. model selects
	// a backend model; empty means the configured default.
	Chat(prompt, model string) (string, error)

	// ListModels returns the model names the backend offers, possibly
	// empty.
	ListModels() ([]string, error)
}
