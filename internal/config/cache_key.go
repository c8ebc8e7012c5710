package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthorSessionKey returns the cache key holding an author's current token id
func (r *CacheKeyStruct) AuthorSessionKey(authorID int) string {
	return fmt.Sprintf("login:author:%d", authorID)
}

// SectionGeneratingKey returns the marker key set while AI suggestions for a section are in flight
func (r *CacheKeyStruct) SectionGeneratingKey(paperID, sectionID string) string {
	return fmt.Sprintf("paper:%s:section:%s:generating", paperID, sectionID)
}

// SectionSuggestionErrorKey returns the key holding the last AI failure for a section
func (r *CacheKeyStruct) SectionSuggestionErrorKey(paperID, sectionID string) string {
	return fmt.Sprintf("paper:%s:section:%s:suggestion_error", paperID, sectionID)
}

// PaperEventsChannel returns the Redis PubSub channel name for a paper's change events
func (r *CacheKeyStruct) PaperEventsChannel(paperID string) string {
	return fmt.Sprintf("paper:%s:events", paperID)
}

// SuggestionRateKey returns the rate limit counter key for a client's suggestion requests
func (r *CacheKeyStruct) SuggestionRateKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:suggestions:%s", clientIP)
}

var CacheKey = NewCacheKeyStruct()
