package feed

import (
	"chit-chat/internal/models"

	"github.com/google/uuid"
)

// Visible returns the subsequence of messages the viewer may see: every
// public message, plus private messages the viewer sent or received.
// Input order is preserved and the input slice is not mutated.
func Visible(messages []*models.Message, viewerID uuid.UUID) []*models.Message {
	visible := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.IsPrivate {
			visible = append(visible, msg)
			continue
		}
		if msg.UserID == viewerID {
			visible = append(visible, msg)
			continue
		}
		if msg.TargetUserID != nil && *msg.TargetUserID == viewerID {
			visible = append(visible, msg)
		}
	}
	return visible
}
