// The code in this package is derivative of https://github.com/jub0bs/iterutil (all credit to jub0bs).
// Mount of this source code is governed by a MIT License that can be found
// at https://github.com/jub0bs/iterutil/blob/main/LICENSE.

package iterutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func indexed(elems ...string) func(yield func(int, string) bool) {
	return func(yield func(int, string) bool) {
		for i, e := range elems {
			if !yield(i, e) {
				return
			}
		}
	}
}

func TestLeft(t *testing.T) {
	var got []int
	for k := range Left(indexed("a", "b", "c")) {
		got = append(got, k)
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestLeftStopsEarly(t *testing.T) {
	var got []int
	for k := range Left(indexed("a", "b", "c")) {
		got = append(got, k)
		if k == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, got)
}

func TestRight(t *testing.T) {
	var got []string
	for v := range Right(indexed("a", "b", "c")) {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSeqOf(t *testing.T) {
	var got []int
	for v := range SeqOf(1, 2, 3) {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMap(t *testing.T) {
	var got []string
	for v := range Map(SeqOf(1, 2, 3), func(n int) string {
		if n == 2 {
			return "two"
		}
		return "other"
	}) {
		got = append(got, v)
	}
	assert.Equal(t, []string{"other", "two", "other"}, got)
}

func TestLen2(t *testing.T) {
	assert.Equal(t, 3, Len2(indexed("a", "b", "c")))
	assert.Equal(t, 0, Len2(indexed()))
}
