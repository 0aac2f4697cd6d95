package main

import "testing"

func TestHealthURL(t *testing.T) {
	tests := []struct {
		addr, port, want string
	}{
		{"", "", "http://localhost:3000/api/health"},
		{"", "8081", "http://localhost:8081/api/health"},
		{":9000", "8081", "http://localhost:9000/api/health"},
		{"127.0.0.1:4000", "", "http://127.0.0.1:4000/api/health"},
	}
	for _, tt := range tests {
		t.Setenv("HTTP_ADDR", tt.addr)
		t.Setenv("PORT", tt.port)
		if got := healthURL(); got != tt.want {
			t.Errorf("healthURL(addr=%q, port=%q) = %q, want %q", tt.addr, tt.port, got, tt.want)
		}
	}
}
