package main

import "testing"

func TestJoinInts(t *testing.T) {
	tests := []struct {
		values []int
		limit  int
		want   string
	}{
		{nil, 5, ""},
		{[]int{3}, 5, "3"},
		{[]int{1, 2, 3}, 5, "1, 2, 3"},
		{[]int{1, 2, 3, 4}, 2, "1, 2, ... (2 more)"},
	}
	for _, tt := range tests {
		if got := joinInts(tt.values, tt.limit); got != tt.want {
			t.Errorf("joinInts(%v, %d) = %q, want %q", tt.values, tt.limit, got, tt.want)
		}
	}
}
