package feed

import (
	"testing"
	"time"

	"chit-chat/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func reaction(messageID, userID uuid.UUID, emoji string) *models.Reaction {
	return &models.Reaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
}

func receipt(messageID, userID uuid.UUID) *models.SeenReceipt {
	return &models.SeenReceipt{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		SeenAt:    time.Now(),
	}
}

func TestMergeAttachesAnnotations(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	msg := publicMsg(alice, "hello")
	other := publicMsg(bob, "unrelated")

	reactions := []*models.Reaction{
		reaction(msg.ID, bob, "👍"),
		reaction(msg.ID, alice, "❤️"),
	}
	receipts := []*models.SeenReceipt{
		receipt(msg.ID, bob),
	}

	merged := Merge([]*models.Message{msg, other}, reactions, receipts)
	assert.Len(t, merged, 2)

	assert.Len(t, merged[0].Reactions, 2)
	assert.Equal(t, "👍", merged[0].Reactions[0].Emoji)
	assert.Equal(t, "❤️", merged[0].Reactions[1].Emoji)
	assert.Len(t, merged[0].SeenBy, 1)
	assert.Equal(t, bob, merged[0].SeenBy[0].UserID)

	// The second message has no annotations of its own.
	assert.NotNil(t, merged[1].Reactions)
	assert.Empty(t, merged[1].Reactions)
	assert.NotNil(t, merged[1].SeenBy)
	assert.Empty(t, merged[1].SeenBy)
}

func TestMergeDropsAuthorReceipt(t *testing.T) {
	alice := uuid.New()
	msg := publicMsg(alice, "hi")

	merged := Merge(
		[]*models.Message{msg},
		nil,
		[]*models.SeenReceipt{receipt(msg.ID, alice)},
	)
	assert.Empty(t, merged[0].SeenBy)
}

func TestMergeDeduplicatesReceipts(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	msg := publicMsg(alice, "hi")

	first := receipt(msg.ID, bob)
	second := receipt(msg.ID, bob)

	merged := Merge([]*models.Message{msg}, nil, []*models.SeenReceipt{first, second})
	assert.Len(t, merged[0].SeenBy, 1)
	assert.Equal(t, first.ID, merged[0].SeenBy[0].ID) // first one wins
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	alice := uuid.New()
	msg := publicMsg(alice, "hi")

	Merge([]*models.Message{msg}, []*models.Reaction{reaction(msg.ID, uuid.New(), "😂")}, nil)
	assert.Nil(t, msg.Reactions)
	assert.Nil(t, msg.SeenBy)
}

// Filtering then merging must produce the same result as merging then
// filtering: annotations never change who may see a message.
func TestMergeCommutesWithVisible(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	pub := publicMsg(alice, "public")
	priv := privateMsg(alice, bob, "private")
	messages := []*models.Message{pub, priv}

	reactions := []*models.Reaction{
		reaction(pub.ID, bob, "👍"),
		reaction(priv.ID, bob, "🎉"),
	}
	receipts := []*models.SeenReceipt{
		receipt(pub.ID, bob),
		receipt(priv.ID, bob),
	}

	mergedThenFiltered := Visible(Merge(messages, reactions, receipts), bob)
	filteredThenMerged := Merge(Visible(messages, bob), reactions, receipts)

	assert.Equal(t, filteredThenMerged, mergedThenFiltered)
}

func TestGroupReactions(t *testing.T) {
	msgID := uuid.New()
	reactions := []*models.Reaction{
		reaction(msgID, uuid.New(), "👍"),
		reaction(msgID, uuid.New(), "😂"),
		reaction(msgID, uuid.New(), "👍"),
	}

	groups := GroupReactions(reactions)
	assert.Len(t, groups, 2)
	assert.Len(t, groups["👍"], 2)
	assert.Len(t, groups["😂"], 1)
	assert.Equal(t, reactions[0].ID, groups["👍"][0].ID)
	assert.Equal(t, reactions[2].ID, groups["👍"][1].ID)
}
