package simtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioIdenticalStringsIsOne(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("counter", "counter"))
}

func TestRatioCompletelyUnrelatedStringsFloorsAtOneThird(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, Ratio("abc", "xyz"), 1e-9)
}

func TestRatioPartialOverlapIsBetweenFloorAndOne(t *testing.T) {
	r := Ratio("100", "101")
	assert.Greater(t, r, 1.0/3.0)
	assert.Less(t, r, 1.0)
}

func TestRatioEmptyStringsAreIdentical(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
}

func TestRatioIsSymmetric(t *testing.T) {
	assert.InDelta(t, Ratio("abcd", "abef"), Ratio("abef", "abcd"), 1e-9)
}
