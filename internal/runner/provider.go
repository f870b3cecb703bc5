package runner

import (
	"github.com/vinayprograms/agentkit/llm"

	"github.com/vinayprograms/delegate/internal/spec"
)

// providerFor builds a provider from the spec's model binding, falling
// back to the default provider when the binding cannot be satisfied.
// The fallback is deliberate: a bad model name in one spec file should
// degrade that agent, not fail the run outright.
func (r *Runner) providerFor(s *spec.Spec) llm.Provider {
	binding := s.ModelConfig
	if binding == nil || binding.Model == "" {
		return r.defaultProvider
	}

	providerName := binding.Provider
	if providerName == "" {
		providerName = llm.InferProviderFromModel(binding.Model)
	}

	var apiKey string
	if r.creds != nil {
		apiKey = r.creds.GetAPIKey(providerName)
	}

	p, err := llm.NewProvider(llm.ProviderConfig{
		Provider:  providerName,
		Model:     binding.Model,
		APIKey:    apiKey,
		MaxTokens: r.maxTokens,
		BaseURL:   binding.Endpoint,
	})
	if err != nil {
		r.logger.Warn("falling back to default provider", map[string]interface{}{
			"agent": s.Name,
			"model": binding.Model,
			"error": err.Error(),
		})
		return r.defaultProvider
	}
	return p
}
