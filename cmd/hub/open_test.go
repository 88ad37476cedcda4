package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSPIPort(t *testing.T) {
	tests := []struct {
		name    string
		bus, cs int
		err     bool
	}{
		{"", 0, 0, false},
		{"1", 1, 0, false},
		{"0.1", 0, 1, false},
		{"x.1", 0, 0, true},
		{"0.y", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, cs, err := spiPort(tt.name)
			if tt.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.bus, bus)
			assert.Equal(t, tt.cs, cs)
		})
	}
}
