package redis

import "testing"

func TestKeyNamespacing(t *testing.T) {
	c := &Client{prefix: DefaultKeyPrefix}
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"questions:gnosis"}, "oracleview:questions:gnosis"},
		{[]string{"ratelimit", "203.0.113.9"}, "oracleview:ratelimit:203.0.113.9"},
		{[]string{"lock", "watcher"}, "oracleview:lock:watcher"},
	}
	for _, tt := range tests {
		if got := c.key(tt.parts...); got != tt.want {
			t.Errorf("key(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestSlidingWindowScriptEmbedded(t *testing.T) {
	if slidingWindowLua == "" {
		t.Fatal("sliding window script not embedded")
	}
}
