package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const invalidatePattern = "feed:*"

// cacheKeyFeed is deterministic for equal queries:
// feed:{scope}:{hash_of_params}
func cacheKeyFeed(q Query) string {
	raw := fmt.Sprintf("scope=%s|author=%s|page=%d|ps=%d", q.Scope, q.AuthorID, q.Page, q.PageSize)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("feed:%s:%s", q.Scope, hex.EncodeToString(hash[:]))
}
