package device

import (
	"context"
	"encoding/binary"
	"strings"
	"time"

	"codeberg.org/mutker/envmon/internal/errors"
	"codeberg.org/mutker/envmon/internal/logger"
	"github.com/go-ble/ble"
)

// Environmental sensing service and per-channel characteristics. Standard
// GATT UUIDs where they exist, vendor UUIDs for the rest.
const (
	sensingServiceUUID = "181a"

	temperatureCharUUID   = "2a6e"
	humidityCharUUID      = "2a6f"
	pressureCharUUID      = "2a6d"
	co2CharUUID           = "2b8c"
	airQualityCharUUID    = "f3a56edf8f1b11ee9f1a325096b39f47"
	gasResistanceCharUUID = "f3a571708f1b11ee9f1a325096b39f47"
)

// channelCodec maps a channel to its characteristic and the fixed-point
// scale of the value on the wire.
type channelCodec struct {
	uuid   string
	scale  float64
	signed bool
}

var channelCodecs = map[Channel]channelCodec{
	ChannelTemperature:   {uuid: temperatureCharUUID, scale: 100, signed: true},
	ChannelHumidity:      {uuid: humidityCharUUID, scale: 100},
	ChannelPressure:      {uuid: pressureCharUUID, scale: 10},
	ChannelAirQuality:    {uuid: airQualityCharUUID, scale: 10},
	ChannelCO2:           {uuid: co2CharUUID, scale: 1},
	ChannelGasResistance: {uuid: gasResistanceCharUUID, scale: 1},
}

// BLETransport dials the peripheral at a fixed address over the default
// BLE device and negotiates access to the sensing service.
type BLETransport struct {
	Addr        string
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

func (t *BLETransport) Dial(ctx context.Context) (Conn, error) {
	errFactory := errors.New()

	dialCtx := ctx
	if t.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, t.DialTimeout)
		defer cancel()
	}

	filter := func(a ble.Advertisement) bool {
		return strings.EqualFold(a.Addr().String(), t.Addr)
	}

	logger.Debug().Str("addr", t.Addr).Msg("Dialing peripheral")
	cln, err := ble.Connect(dialCtx, filter)
	if err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}

	conn, err := newBLEConn(cln, t.ReadTimeout)
	if err != nil {
		_ = cln.CancelConnection()
		return nil, err
	}

	return conn, nil
}

type bleConn struct {
	cln         ble.Client
	chars       map[Channel]*ble.Characteristic
	readTimeout time.Duration
	done        chan struct{}
}

func newBLEConn(cln ble.Client, readTimeout time.Duration) (*bleConn, error) {
	errFactory := errors.New()

	svcUUID, err := ble.Parse(sensingServiceUUID)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInternal, err)
	}

	services, err := cln.DiscoverServices([]ble.UUID{svcUUID})
	if err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}
	if len(services) == 0 {
		return nil, errFactory.WithMessage(ErrConnectFailed, "peripheral does not expose the sensing service")
	}

	discovered, err := cln.DiscoverCharacteristics(nil, services[0])
	if err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}

	chars := make(map[Channel]*ble.Characteristic, len(channelCodecs))
	for ch, codec := range channelCodecs {
		uuid, err := ble.Parse(codec.uuid)
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInternal, err)
		}
		for _, c := range discovered {
			if c.UUID.Equal(uuid) {
				chars[ch] = c
				break
			}
		}
	}

	conn := &bleConn{
		cln:         cln,
		chars:       chars,
		readTimeout: readTimeout,
		done:        make(chan struct{}),
	}

	// The peripheral may drop the connection asynchronously.
	go func() {
		<-cln.Disconnected()
		logger.Debug().Msg("Peripheral disconnected")
		close(conn.done)
	}()

	return conn, nil
}

func (c *bleConn) Read(ctx context.Context, ch Channel) (float64, error) {
	errFactory := errors.New()

	codec, ok := channelCodecs[ch]
	if !ok {
		return 0, errFactory.WithData(ErrUnknownChannel, string(ch))
	}
	char, ok := c.chars[ch]
	if !ok {
		return 0, errFactory.WithMessage(ErrChannelUnavailable, "characteristic not present on peripheral").WithData(string(ch))
	}

	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}

	type readResult struct {
		data []byte
		err  error
	}
	results := make(chan readResult, 1)
	go func() {
		data, err := c.cln.ReadCharacteristic(char)
		results <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return 0, res.err
		}
		return decodeValue(res.data, codec)
	}
}

func (c *bleConn) Close() error {
	err := c.cln.CancelConnection()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		logger.Warn().Msg("Timed out waiting for peripheral disconnect")
	}

	return err
}

// decodeValue decodes a little-endian fixed-point characteristic value.
func decodeValue(data []byte, codec channelCodec) (float64, error) {
	errFactory := errors.New()

	var raw int64
	switch len(data) {
	case 1:
		raw = int64(data[0])
	case 2:
		if codec.signed {
			raw = int64(int16(binary.LittleEndian.Uint16(data)))
		} else {
			raw = int64(binary.LittleEndian.Uint16(data))
		}
	case 4:
		if codec.signed {
			raw = int64(int32(binary.LittleEndian.Uint32(data)))
		} else {
			raw = int64(binary.LittleEndian.Uint32(data))
		}
	default:
		return 0, errFactory.WithMessage(ErrChannelUnavailable, "unexpected characteristic value length").WithData(len(data))
	}

	return float64(raw) / codec.scale, nil
}
