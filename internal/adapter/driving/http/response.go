package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/storeadmin/internal/catalog"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// SectionResponse is the JSON representation of a catalog section.
type SectionResponse struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Sensitive   bool            `json:"sensitive"`
	Fields      []FieldResponse `json:"fields"`
}

// FieldResponse is the JSON representation of a catalog field.
type FieldResponse struct {
	Key       string           `json:"key"`
	Label     string           `json:"label"`
	Type      string           `json:"type"`
	Required  bool             `json:"required"`
	Encrypted bool             `json:"encrypted"`
	Min       *float64         `json:"min,omitempty"`
	Max       *float64         `json:"max,omitempty"`
	MaxLength int              `json:"max_length,omitempty"`
	Options   []OptionResponse `json:"options"`
}

// OptionResponse is one choice of a select, radio or boolean field.
type OptionResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SectionValuesResponse holds the stored values of one section.
type SectionValuesResponse struct {
	Section  string            `json:"section"`
	Settings map[string]string `json:"settings"`
}

// toSectionResponse converts a catalog section to its JSON representation.
func toSectionResponse(s catalog.Section) SectionResponse {
	fields := make([]FieldResponse, 0, len(s.Fields))
	for _, f := range s.Fields {
		options := make([]OptionResponse, 0, len(f.Options))
		for _, o := range f.Options {
			options = append(options, OptionResponse{Value: o.Value, Label: o.Label})
		}
		fields = append(fields, FieldResponse{
			Key:       f.Key,
			Label:     f.Label,
			Type:      string(f.Type),
			Required:  f.Required,
			Encrypted: f.Encrypted,
			Min:       f.Min,
			Max:       f.Max,
			MaxLength: f.MaxLength,
			Options:   options,
		})
	}

	return SectionResponse{
		Name:        s.Name,
		Title:       s.Title,
		Description: s.Description,
		Sensitive:   s.Sensitive,
		Fields:      fields,
	}
}
