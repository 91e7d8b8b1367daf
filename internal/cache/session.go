package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scrypster/praxis/pkg/types"
)

// defaultSessionSize bounds the session cache; oldest questions are
// evicted first.
const defaultSessionSize = 256

// SessionCache memoizes answers by exact question text for the lifetime
// of the process. It sits in front of the semantic cache so repeating a
// question verbatim never re-embeds it.
type SessionCache struct {
	lru *lru.Cache[string, string]
}

// NewSession creates a session cache holding up to size answers; size <= 0
// uses the default.
func NewSession(size int) (*SessionCache, error) {
	if size <= 0 {
		size = defaultSessionSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &SessionCache{lru: c}, nil
}

// Get returns the memoized answer for the exact question and category.
func (s *SessionCache) Get(query string, category *types.Category) (string, bool) {
	return s.lru.Get(sessionKey(query, category))
}

// Put memoizes an answer. The most recent write for a key wins.
func (s *SessionCache) Put(query string, category *types.Category, answer string) {
	s.lru.Add(sessionKey(query, category), answer)
}

// Len returns the number of memoized answers.
func (s *SessionCache) Len() int {
	return s.lru.Len()
}

// sessionKey scopes memoization to the category filter, so the same
// question asked with a different filter is not conflated.
func sessionKey(query string, category *types.Category) string {
	if category == nil {
		return "\x00" + query
	}
	return string(*category) + "\x00" + query
}
