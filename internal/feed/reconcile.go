package feed

import (
	"chit-chat/internal/models"

	"github.com/google/uuid"
)

// Merge joins reactions and seen receipts onto their parent messages. It is
// a pure join over three flat collections keyed by message ID:
//   - reactions keep their arrival order within each message,
//   - receipts are deduplicated per (message, user), first one wins,
//   - a receipt from the message's own author is dropped,
//   - messages with no annotations get empty slices, never nil, so callers
//     don't have to branch on absent collections.
//
// Inputs are not mutated; the returned messages are shallow copies.
func Merge(messages []*models.Message, reactions []*models.Reaction, receipts []*models.SeenReceipt) []*models.Message {
	reactionsByMsg := make(map[uuid.UUID][]*models.Reaction)
	for _, r := range reactions {
		reactionsByMsg[r.MessageID] = append(reactionsByMsg[r.MessageID], r)
	}

	receiptsByMsg := make(map[uuid.UUID][]*models.SeenReceipt)
	seenByUser := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, rc := range receipts {
		if seenByUser[rc.MessageID] == nil {
			seenByUser[rc.MessageID] = make(map[uuid.UUID]bool)
		}
		if seenByUser[rc.MessageID][rc.UserID] {
			continue
		}
		seenByUser[rc.MessageID][rc.UserID] = true
		receiptsByMsg[rc.MessageID] = append(receiptsByMsg[rc.MessageID], rc)
	}

	merged := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		copied := *msg
		copied.Reactions = make([]*models.Reaction, 0, len(reactionsByMsg[msg.ID]))
		copied.Reactions = append(copied.Reactions, reactionsByMsg[msg.ID]...)

		copied.SeenBy = make([]*models.SeenReceipt, 0, len(receiptsByMsg[msg.ID]))
		for _, rc := range receiptsByMsg[msg.ID] {
			if rc.UserID == msg.UserID {
				continue
			}
			copied.SeenBy = append(copied.SeenBy, rc)
		}
		merged = append(merged, &copied)
	}
	return merged
}

// GroupReactions buckets a message's reactions by emoji, preserving arrival
// order inside each bucket.
func GroupReactions(reactions []*models.Reaction) map[string][]*models.Reaction {
	groups := make(map[string][]*models.Reaction)
	for _, r := range reactions {
		groups[r.Emoji] = append(groups[r.Emoji], r)
	}
	return groups
}
