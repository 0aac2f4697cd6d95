package chatsync

// KeyBodyRunes is how much of the body participates in message identity.
const KeyBodyRunes = 50

// MessageKey identifies a chat message for de-duplication. Two messages from
// the same author in the same second whose bodies share a 50-rune prefix
// collide; that is accepted.
type MessageKey struct {
	VideoTimestamp int
	Author         string
	BodyPrefix     string
}

// KeyOf returns the identity of m.
func KeyOf(m ChatMessage) MessageKey {
	body := m.Body
	if r := []rune(body); len(r) > KeyBodyRunes {
		body = string(r[:KeyBodyRunes])
	}
	author := m.Author
	if author == "" {
		author = UnknownAuthor
	}
	return MessageKey{VideoTimestamp: m.VideoTimestamp, Author: author, BodyPrefix: body}
}
