package redis

import "testing"

func TestKeyNamespacing(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"limiter key", limitKey("oneinch"), "fusionscan:limit:oneinch"},
		{"api client key", limitKey("api:10.0.0.1"), "fusionscan:limit:api:10.0.0.1"},
		{
			"report key lowercases the resolver",
			reportKey("0xAbC1111111111111111111111111111111111111"),
			"fusionscan:report:latest:0xabc1111111111111111111111111111111111111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}
