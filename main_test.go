package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModeArgs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"--mode=order-service", "--config", "c.yaml"}, []string{"order-service", "--config", "c.yaml"}},
		{[]string{"--config", "c.yaml", "--mode", "ts"}, []string{"ts", "--config", "c.yaml"}},
		{[]string{"migrate"}, []string{"migrate"}},
		{[]string{}, []string{}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, modeArgs(tt.in))
	}
}
