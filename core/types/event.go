package types

// Event is a structured record of a state change. Attributes hold the
// indexed payload as strings so downstream consumers never need module
// specific decoding.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
