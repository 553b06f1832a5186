// internal/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/modbus"
)

// UnitID is the protocol unit identifier used for every request.
const UnitID uint8 = 1

var ErrNotConnected = errors.New("modbus client: not connected")

// Config is minimal transport config.
type Config struct {
	Endpoint string // host:port
	Timeout  time.Duration
}

// Client is one Modbus TCP master connection.
// It serializes requests: at most one transaction in flight.
type Client struct {
	mu        sync.Mutex
	handler   *modbus.TCPClientHandler
	client    modbus.Client
	endpoint  string
	timeout   time.Duration
	connected atomic.Bool
}

// Dial opens a connected client. ctx bounds the wait, the handler timeout
// bounds the dial itself.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = UnitID
	// lifetime is owned by the close scheduler, not the handler's idle timer
	h.IdleTimeout = 0

	done := make(chan error, 1)
	go func() {
		done <- h.Connect()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		go func() {
			if err := <-done; err == nil {
				_ = h.Close()
			}
		}()
		return nil, ctx.Err()
	}

	c := &Client{
		handler:  h,
		client:   modbus.NewClient(h),
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
	}
	c.connected.Store(true)
	return c, nil
}

func (c *Client) Endpoint() string       { return c.endpoint }
func (c *Client) Timeout() time.Duration { return c.timeout }

func (c *Client) IsConnected() bool {
	return c != nil && c.connected.Load()
}

// Close closes the TCP connection. Closing twice is a no-op.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if !c.connected.Swap(false) {
		return nil
	}
	return c.handler.Close()
}

// ---- transactions ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	var raw []byte
	err := c.do(func() (err error) {
		raw, err = c.client.ReadCoils(addr, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unpackBits(raw, int(qty))
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	var raw []byte
	err := c.do(func() (err error) {
		raw, err = c.client.ReadDiscreteInputs(addr, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unpackBits(raw, int(qty))
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	var raw []byte
	err := c.do(func() (err error) {
		raw, err = c.client.ReadHoldingRegisters(addr, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw, int(qty))
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	var raw []byte
	err := c.do(func() (err error) {
		raw, err = c.client.ReadInputRegisters(addr, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw, int(qty))
}

func (c *Client) WriteSingleRegister(addr, value uint16) error {
	return c.do(func() error {
		_, err := c.client.WriteSingleRegister(addr, value)
		return err
	})
}

func (c *Client) WriteMultipleRegisters(addr uint16, regs []uint16) error {
	return c.do(func() error {
		_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
		return err
	})
}

func (c *Client) WriteSingleCoil(addr uint16, on bool) error {
	var v uint16
	if on {
		v = 0xFF00
	}
	return c.do(func() error {
		_, err := c.client.WriteSingleCoil(addr, v)
		return err
	})
}

func (c *Client) WriteMultipleCoils(addr uint16, bits []bool) error {
	return c.do(func() error {
		_, err := c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
		return err
	})
}

// do runs one transaction. A device exception keeps the connection;
// any transport or framing error drops it, since the stream may be out of sync.
func (c *Client) do(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected.Load() {
		return ErrNotConnected
	}

	err := fn()
	if err == nil {
		return nil
	}

	var mbErr *modbus.ModbusError
	if !errors.As(err, &mbErr) {
		_ = c.closeLocked()
	}
	return err
}

// ExceptionCode extracts the device exception code from err, if any.
func ExceptionCode(err error) (byte, bool) {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return mbErr.ExceptionCode, true
	}
	return 0, false
}

// ---- helpers (pure geometry) ----

// the device must answer with exactly the requested quantity
func unpackBits(data []byte, count int) ([]bool, error) {
	if len(data) != (count+7)/8 {
		return nil, fmt.Errorf("modbus: bit payload %d bytes, want %d bits", len(data), count)
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out, nil
}

func unpackRegisters(data []byte, count int) ([]uint16, error) {
	if len(data) != 2*count {
		return nil, fmt.Errorf("modbus: register payload %d bytes, want %d registers", len(data), count)
	}
	out := make([]uint16, count)
	for i := 0; i < count; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// Modbus register memory order (BIG-ENDIAN)
func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
