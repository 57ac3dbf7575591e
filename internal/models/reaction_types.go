package models

// AllowedEmojis is the fixed set of reaction symbols the app accepts.
// The picker on the client renders exactly this list, in this order.
var AllowedEmojis = []string{"👍", "❤️", "😂", "😮", "😢", "🎉"}

// IsAllowedEmoji reports whether emoji belongs to the fixed reaction set.
func IsAllowedEmoji(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}
