package redisbroker

import "testing"

func TestRoutable(t *testing.T) {
	cases := map[string]bool{
		"restaurant":          true,
		"orders:user_u_1":     true,
		"orders:restaurant_1": true,
		"orders:other":        false,
		"fanout:o_1:READY":    false,
	}
	for ch, want := range cases {
		if got := Routable(ch); got != want {
			t.Errorf("%s: got %v, want %v", ch, got, want)
		}
	}
}
