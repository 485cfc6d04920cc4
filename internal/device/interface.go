package device

import "context"

// State is the connection lifecycle state of the peripheral link.
// It is owned by the Link and only changes through Connect/Disconnect.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Channel names one sensor measurement exposed by the peripheral.
type Channel string

const (
	ChannelTemperature   Channel = "temperature"
	ChannelHumidity      Channel = "humidity"
	ChannelPressure      Channel = "pressure"
	ChannelAirQuality    Channel = "air-quality-index"
	ChannelCO2           Channel = "co2"
	ChannelGasResistance Channel = "gas-resistance"
)

// Channels returns all known channels in their canonical read order.
func Channels() []Channel {
	return []Channel{
		ChannelTemperature,
		ChannelHumidity,
		ChannelPressure,
		ChannelAirQuality,
		ChannelCO2,
		ChannelGasResistance,
	}
}

// Conn is an established link to the peripheral supporting one
// request/response exchange per named channel.
type Conn interface {
	Read(ctx context.Context, ch Channel) (float64, error)
	Close() error
}

// Transport performs the pairing/negotiation handshake with the peripheral.
type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}
