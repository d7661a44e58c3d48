// Package response holds the JSON envelope shared by the API endpoints.
package response

// Envelope is the body shape every endpoint returns.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data interface{}) Envelope {
	return Envelope{
		Success: true,
		Data:    data,
	}
}

// Error wraps a message in a failure envelope.
func Error(message string) Envelope {
	return Envelope{
		Success: false,
		Message: message,
	}
}
