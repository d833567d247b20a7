package types

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type (
	// Field name -> label key
	FieldErrors map[string]string

	EnvelopeData struct {
		// Only populated on error envelopes
		Validation FieldErrors `json:"validation,omitempty"`
		// Vendor response body, passed through as decoded JSON when possible
		Body any `json:"body,omitempty"`
	}

	// Uniform result of every integration call and submission route
	Envelope struct {
		Data    EnvelopeData `json:"data"`
		Message string       `json:"message"`
		Status  Status       `json:"status"`
		Code    int          `json:"code"`
	}
)

// NewEnvelope is the only way an Envelope should be built. Status is derived from code.
func NewEnvelope(code int, message string, data EnvelopeData) Envelope {
	status := StatusError
	if code >= 200 && code <= 299 {
		status = StatusSuccess
		data.Validation = nil
	}

	return Envelope{
		Code:    code,
		Status:  status,
		Message: message,
		Data:    data,
	}
}

func (e Envelope) IsSuccess() bool {
	return e.Status == StatusSuccess
}

// Copy of the envelope with a different message, keeping code and status in sync
func (e Envelope) WithMessage(message string) Envelope {
	return NewEnvelope(e.Code, message, e.Data)
}

// Copy of the envelope with different field errors
func (e Envelope) WithValidation(validation FieldErrors) Envelope {
	data := e.Data
	data.Validation = validation
	return NewEnvelope(e.Code, e.Message, data)
}
