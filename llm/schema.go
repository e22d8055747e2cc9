package llm

// Canonical parameter names. These are the names the schema, the per-adapter
// ignored-field lists and the capability rules all agree on; adapters map
// them to their own wire-level spellings.
const (
	ParamTemperature       = "temperature"
	ParamTopP              = "top_p"
	ParamN                 = "n"
	ParamLogprobs          = "logprobs"
	ParamMaxTokens         = "max_tokens"
	ParamStop              = "stop"
	ParamResponseFormat    = "response_format"
	ParamReasoningEffort   = "reasoning_effort"
	ParamParallelToolCalls = "parallel_tool_calls"
	ParamMetadata          = "metadata"
	ParamDimensions        = "dimensions"
)

// Schema declares the canonical chat parameter set and its baseline
// defaults. Resolution order for every field is
//
//	schema default → configured provider default → caller value
//
// with later values overriding earlier ones, and fields on the adapter's
// ignored list dropped from the result entirely.
type Schema struct {
	temperature *float32
	topP        *float32
	n           *int
}

// DefaultSchema returns the baseline parameter schema: temperature 1.0,
// top_p 1.0, n 1, everything else absent unless supplied.
func DefaultSchema() *Schema {
	return &Schema{
		temperature: Float32Ptr(1.0),
		topP:        Float32Ptr(1.0),
		n:           IntPtr(1),
	}
}

// known reports whether name is a canonical parameter the schema manages.
func (s *Schema) known(name string) bool {
	switch name {
	case ParamTemperature, ParamTopP, ParamN, ParamLogprobs, ParamMaxTokens,
		ParamStop, ParamResponseFormat, ParamReasoningEffort,
		ParamParallelToolCalls, ParamMetadata, ParamDimensions:
		return true
	}
	return false
}

// resolve applies the three-level merge and the ignored-field drops to a
// cloned request in place. The caller's own values always win when present;
// ignored fields end up absent no matter who supplied them.
func (s *Schema) resolve(req *ChatRequest, cfg ProviderConfig) {
	ignored := cfg.ignoredSet()

	req.Temperature = mergeFloat(s.temperature, cfg.Defaults.Temperature, req.Temperature)
	req.TopP = mergeFloat(s.topP, cfg.Defaults.TopP, req.TopP)
	req.N = mergeInt(s.n, cfg.Defaults.N, req.N)
	if req.MaxTokens == 0 {
		req.MaxTokens = cfg.Defaults.MaxTokens
	}

	if ignored[ParamTemperature] {
		req.Temperature = nil
	}
	if ignored[ParamTopP] {
		req.TopP = nil
	}
	if ignored[ParamN] {
		req.N = nil
	}
	if ignored[ParamLogprobs] {
		req.Logprobs = nil
	}
	if ignored[ParamMaxTokens] {
		req.MaxTokens = 0
	}
	if ignored[ParamStop] {
		req.Stop = nil
	}
	if ignored[ParamResponseFormat] {
		req.ResponseFormat = ""
	}
	if ignored[ParamReasoningEffort] {
		req.ReasoningEffort = ""
	}
	if ignored[ParamParallelToolCalls] {
		req.ParallelToolCalls = nil
	}
	if ignored[ParamMetadata] {
		req.Metadata = nil
	}
}

func mergeFloat(schema, configured, caller *float32) *float32 {
	if caller != nil {
		return caller
	}
	if configured != nil {
		return configured
	}
	return schema
}

func mergeInt(schema, configured, caller *int) *int {
	if caller != nil {
		return caller
	}
	if configured != nil {
		return configured
	}
	return schema
}
