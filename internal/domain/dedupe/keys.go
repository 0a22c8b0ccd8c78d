package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
)

// ContentKey identifies the underlying item across polls.
func ContentKey(item model.RawItem) string {
	return digest(item.URLOrID, item.Title)
}

// SignalKey identifies one fact about a player from one source. A
// different classification for the same player yields a different key.
func SignalKey(sig model.ResolvedSignal) string {
	return digest(sig.PlayerID, string(sig.Classification), sig.SourceName)
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
