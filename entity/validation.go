package entity

// ValidationResult is returned by every field validator.
type ValidationResult struct {
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func Valid(data map[string]any) ValidationResult {
	return ValidationResult{Success: true, Data: data}
}

func Invalid(message string) ValidationResult {
	return ValidationResult{Success: false, ErrorMessage: message}
}

func (r ValidationResult) WithMeta(key string, value any) ValidationResult {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
	return r
}

func (r ValidationResult) String(key string) string {
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}
