package types

// StatusMessage is the single structured emission format used for all
// out-of-band reporting during a run.
type StatusMessage struct {
	Message  string `json:"message"`
	Progress int    `json:"progress"` // elapsed-window percentage, 0-100
}
