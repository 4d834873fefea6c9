package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TestPaperKey returns the cache key for a published test's question set
func (r *CacheKeyStruct) TestPaperKey(testID uuid.UUID) string {
	return fmt.Sprintf("test:%s:paper", testID)
}

// AttemptMetaKey returns the cache key for an attempt's metadata hash
func (r *CacheKeyStruct) AttemptMetaKey(attemptID uuid.UUID) string {
	return fmt.Sprintf("attempt:%s:meta", attemptID)
}

// AttemptAnswersKey returns the cache key for an attempt's captured answers
func (r *CacheKeyStruct) AttemptAnswersKey(attemptID uuid.UUID) string {
	return fmt.Sprintf("attempt:%s:answers", attemptID)
}

// LearnerActiveAttemptKey returns the cache key for a learner's open attempt on a test
func (r *CacheKeyStruct) LearnerActiveAttemptKey(learnerID string, testID uuid.UUID) string {
	return fmt.Sprintf("learner:%s:test:%s:attempt", learnerID, testID)
}

// RevokedTokenKey returns the cache key marking a signed-out token id
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("token:%s:revoked", jti)
}

var CacheKey = NewCacheKeyStruct()
