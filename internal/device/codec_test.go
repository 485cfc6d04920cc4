package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		codec channelCodec
		want  float64
	}{
		{"temperature hundredths", []byte{0x66, 0x08}, channelCodec{scale: 100, signed: true}, 21.50},
		{"negative temperature", []byte{0x9a, 0xfe}, channelCodec{scale: 100, signed: true}, -3.58},
		{"humidity hundredths", []byte{0xa8, 0x11}, channelCodec{scale: 100}, 45.20},
		{"co2 raw ppm", []byte{0x9a, 0x01}, channelCodec{scale: 1}, 410},
		{"gas resistance 32bit", []byte{0xe0, 0x2e, 0x00, 0x00}, channelCodec{scale: 1}, 12000},
		{"single byte", []byte{0x4b}, channelCodec{scale: 1}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeValue(tt.data, tt.codec)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestDecodeValueRejectsOddLengths(t *testing.T) {
	_, err := decodeValue([]byte{1, 2, 3}, channelCodec{scale: 1})
	require.Error(t, err)
}
