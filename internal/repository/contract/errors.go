package contract

import "errors"

// Not-found conditions are surfaced as distinct errors rather than (nil, nil)
// where a caller must react to them (ledger finalization, admin lookups).
var (
	ErrJobExecutionNotFound = errors.New("job execution not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
)
