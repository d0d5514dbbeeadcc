package dto

type RecoverResponse struct {
	Skipped         bool     `json:"skipped"`
	SkipReason      string   `json:"skip_reason,omitempty"`
	RecoveredCount  int      `json:"recovered_count"`
	ConversationIds []string `json:"conversation_ids,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// DetectStuckResponse lists conversations the sweep would reclaim, without
// touching them. Read-only diagnostic for operators.
type DetectStuckResponse struct {
	StuckCount      int      `json:"stuck_count"`
	ConversationIds []string `json:"conversation_ids"`
}

// DeprecationResponse is the fixed body returned by retired endpoints so old
// schedulers hitting them get an explicit signal instead of a silent 404.
type DeprecationResponse struct {
	Deprecated bool   `json:"deprecated"`
	Message    string `json:"message"`
	ReplacedBy string `json:"replaced_by,omitempty"`
}
