package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// cacheKeySearch: search:{hash_of_query_and_limit}
func cacheKeySearch(query string, limit int) string {
	raw := fmt.Sprintf("q=%s|limit=%d", strings.ToLower(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return "search:" + hex.EncodeToString(hash[:])
}
