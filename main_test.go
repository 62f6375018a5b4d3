package main

import (
	"testing"

	"github.com/starforgelabs/balance-server-2/config"
)

func TestListenAdvisory(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
		want string
	}{
		{
			name: "websocket only",
			cfg:  config.ServerConfig{WSAddr: ":3333"},
			want: "Server listening on ws :3333",
		},
		{
			name: "tcp only",
			cfg:  config.ServerConfig{TCPAddr: ":4444"},
			want: "Server listening on tcp :4444",
		},
		{
			name: "both listeners",
			cfg:  config.ServerConfig{WSAddr: ":3333", TCPAddr: ":4444"},
			want: "Server listening on ws :3333, tcp :4444",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listenAdvisory(tt.cfg); got != tt.want {
				t.Errorf("listenAdvisory() = %q, want %q", got, tt.want)
			}
		})
	}
}
