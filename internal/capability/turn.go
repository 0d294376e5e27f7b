package capability

import "github.com/feastline/concierge/internal/domain"

// Turn carries the per-request context capabilities read from: which
// conversation they run in, who is asking, where the user is, and any
// attachment sent with the message. Capabilities never reach outside the
// turn for request state.
type Turn struct {
	ConversationID string
	UserID         string
	Location       *domain.Location
	Media          *domain.Media
}

// HasMedia reports whether the turn carries a usable attachment.
func (t *Turn) HasMedia() bool {
	return t != nil && t.Media != nil && t.Media.Data != ""
}
