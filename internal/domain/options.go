package domain

import "fmt"

// ProviderOptions is one variant of the per-provider configuration union.
// Each variant carries only the fields its provider recognizes; Selector
// exposes them for pricing resolution.
type ProviderOptions interface {
	Provider() ProviderID
	Selector() map[string]string
	Validate() error
}

// ParseOptions is the tagged union of per-provider configuration, keyed by
// provider id. Unset variants fall back to each adapter's defaults.
type ParseOptions struct {
	LlamaIndex   *LlamaIndexOptions   `json:"llamaindex,omitempty"`
	Reducto      *ReductoOptions      `json:"reducto,omitempty"`
	LandingAI    *LandingAIOptions    `json:"landingai,omitempty"`
	ExtendAI     *ExtendAIOptions     `json:"extendai,omitempty"`
	Unstructured *UnstructuredOptions `json:"unstructured,omitempty"`
}

// For returns the variant for the given provider, or nil if unset.
func (o ParseOptions) For(id ProviderID) ProviderOptions {
	switch id {
	case ProviderLlamaIndex:
		if o.LlamaIndex != nil {
			return o.LlamaIndex
		}
	case ProviderReducto:
		if o.Reducto != nil {
			return o.Reducto
		}
	case ProviderLandingAI:
		if o.LandingAI != nil {
			return o.LandingAI
		}
	case ProviderExtendAI:
		if o.ExtendAI != nil {
			return o.ExtendAI
		}
	case ProviderUnstructured:
		if o.Unstructured != nil {
			return o.Unstructured
		}
	}
	return nil
}

// Validate checks every set variant at the request boundary.
func (o ParseOptions) Validate() error {
	for _, id := range KnownProviders {
		if opts := o.For(id); opts != nil {
			if err := opts.Validate(); err != nil {
				return fmt.Errorf("%s options: %w", id, err)
			}
		}
	}
	return nil
}

// LlamaIndexOptions configures LlamaParse jobs.
type LlamaIndexOptions struct {
	ParseMode string `json:"parse_mode"`
	Model     string `json:"model"`
}

func (o *LlamaIndexOptions) Provider() ProviderID { return ProviderLlamaIndex }

func (o *LlamaIndexOptions) Selector() map[string]string {
	return map[string]string{"parse_mode": o.ParseMode, "model": o.Model}
}

func (o *LlamaIndexOptions) Validate() error {
	switch o.ParseMode {
	case "", "parse_page_with_agent", "parse_page_with_llm":
		return nil
	}
	return fmt.Errorf("unsupported parse_mode %q", o.ParseMode)
}

// ReductoOptions configures Reducto parse runs.
type ReductoOptions struct {
	Mode             string `json:"mode"` // standard or complex
	SummarizeFigures bool   `json:"summarize_figures"`
}

func (o *ReductoOptions) Provider() ProviderID { return ProviderReducto }

func (o *ReductoOptions) Selector() map[string]string {
	return map[string]string{"mode": o.Mode}
}

func (o *ReductoOptions) Validate() error {
	switch o.Mode {
	case "", "standard", "complex":
		return nil
	}
	return fmt.Errorf("unsupported mode %q", o.Mode)
}

// LandingAIOptions configures LandingAI document extraction.
type LandingAIOptions struct {
	Model string `json:"model"`
}

func (o *LandingAIOptions) Provider() ProviderID { return ProviderLandingAI }

func (o *LandingAIOptions) Selector() map[string]string {
	return map[string]string{"model": o.Model}
}

func (o *LandingAIOptions) Validate() error { return nil }

// ExtendAIOptions configures Extend document processing.
type ExtendAIOptions struct {
	AgenticOCR bool `json:"agentic_ocr"`
}

func (o *ExtendAIOptions) Provider() ProviderID { return ProviderExtendAI }

func (o *ExtendAIOptions) Selector() map[string]string {
	mode := "standard"
	if o.AgenticOCR {
		mode = "agentic-ocr"
	}
	return map[string]string{"mode": mode}
}

func (o *ExtendAIOptions) Validate() error { return nil }

// UnstructuredOptions configures the Unstructured partition API.
type UnstructuredOptions struct {
	Strategy string `json:"strategy"` // fast, hi_res, or vlm
	VLMModel string `json:"vlm_model,omitempty"`
}

func (o *UnstructuredOptions) Provider() ProviderID { return ProviderUnstructured }

func (o *UnstructuredOptions) Selector() map[string]string {
	return map[string]string{"strategy": o.Strategy}
}

func (o *UnstructuredOptions) Validate() error {
	switch o.Strategy {
	case "", "fast", "hi_res", "vlm":
		return nil
	}
	return fmt.Errorf("unsupported strategy %q", o.Strategy)
}
