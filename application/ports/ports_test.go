package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_String(t *testing.T) {
	assert.Equal(t, `"IL6":"CRP":4`, CacheKey{Source: "IL6", Target: "CRP", Depth: 4}.String())

	tests := []struct {
		name string
		a, b CacheKey
	}{
		{"underscore moves between parts", CacheKey{"a_b", "c", 4}, CacheKey{"a", "b_c", 4}},
		{"colon moves between parts", CacheKey{"a:b", "c", 4}, CacheKey{"a", "b:c", 4}},
		{"quote inside a part", CacheKey{`a":"b`, "c", 4}, CacheKey{"a", `b":"c`, 4}},
		{"depth differs", CacheKey{"a", "b", 4}, CacheKey{"a", "b", 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a.String(), tt.b.String())
		})
	}
}
