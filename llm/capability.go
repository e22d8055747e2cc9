package llm

import "strings"

// reasoningModelPrefixes identifies the model families with restricted
// parameter support: sampling temperature is fixed and parallel tool
// execution flags are rejected outright by the API. Matching is on the
// leading name segment so "o3" and "o3-mini-2025" match but "o30" does not.
var reasoningModelPrefixes = []string{"o1", "o3", "o4-mini"}

// ReasoningTemperature is the only sampling temperature the reasoning
// families accept.
const ReasoningTemperature float32 = 1

// IsReasoningModel reports whether model belongs to a reasoning family.
func IsReasoningModel(model string) bool {
	model = strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range reasoningModelPrefixes {
		if model == prefix || strings.HasPrefix(model, prefix+"-") || strings.HasPrefix(model, prefix+".") {
			return true
		}
	}
	return false
}

// embeddingDimensions maps embedding models to their default output
// dimensionality, injected when the caller supplies none.
var embeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// legacyEmbeddingModel never accepts a dimensions field; the parameter must
// be omitted from the wire payload regardless of caller input, since its
// mere presence is rejected.
const legacyEmbeddingModel = "text-embedding-ada-002"

// DefaultEmbeddingDimensions returns the default dimensionality for a known
// embedding model.
func DefaultEmbeddingDimensions(model string) (int, bool) {
	d, ok := embeddingDimensions[model]
	return d, ok
}

// SupportsCustomDimensions reports whether an embedding model accepts an
// explicit dimensions parameter at all.
func SupportsCustomDimensions(model string) bool {
	return model != legacyEmbeddingModel
}
