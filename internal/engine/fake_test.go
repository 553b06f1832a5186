// internal/engine/fake_test.go
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool

	// failures counts down; while > 0 every transaction fails.
	failures int
	err      error

	regs  map[uint16]uint16
	coils map[uint16]bool

	writes int
}

func newFakeConn() *fakeConn {
	return &fakeConn{regs: map[uint16]uint16{}, coils: map[uint16]bool{}}
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) check() error {
	if f.closed {
		return errors.New("closed")
	}
	if f.failures > 0 {
		f.failures--
		if f.err != nil {
			return f.err
		}
		return errors.New("device busy")
	}
	return nil
}

func (f *fakeConn) readBits(addr, qty uint16) ([]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	out := make([]bool, qty)
	for i := range out {
		out[i] = f.coils[addr+uint16(i)]
	}
	return out, nil
}

func (f *fakeConn) readRegs(addr, qty uint16) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return nil, err
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = f.regs[addr+uint16(i)]
	}
	return out, nil
}

func (f *fakeConn) ReadCoils(addr, qty uint16) ([]bool, error) { return f.readBits(addr, qty) }
func (f *fakeConn) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) { return f.readBits(addr, qty) }
func (f *fakeConn) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	return f.readRegs(addr, qty)
}
func (f *fakeConn) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	return f.readRegs(addr, qty)
}

func (f *fakeConn) WriteSingleCoil(addr uint16, on bool) error {
	return f.WriteMultipleCoils(addr, []bool{on})
}

func (f *fakeConn) WriteSingleRegister(addr, value uint16) error {
	return f.WriteMultipleRegisters(addr, []uint16{value})
}

func (f *fakeConn) WriteMultipleCoils(addr uint16, bits []bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.writes++
	for i, b := range bits {
		f.coils[addr+uint16(i)] = b
	}
	return nil
}

func (f *fakeConn) WriteMultipleRegisters(addr uint16, regs []uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(); err != nil {
		return err
	}
	f.writes++
	for i, r := range regs {
		f.regs[addr+uint16(i)] = r
	}
	return nil
}

// fakeDialer hands out fresh fakeConns, or fails the first dialFailures calls.
type fakeDialer struct {
	mu           sync.Mutex
	calls        int
	dialFailures int
	conns        []*fakeConn

	// prepare is applied to every new connection.
	prepare func(*fakeConn)
}

func (d *fakeDialer) Dial(ctx context.Context, ep Endpoint) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.dialFailures {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	if d.prepare != nil {
		d.prepare(c)
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeResolver struct {
	err   error
	calls atomic.Int32
}

func (r *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return []string{"127.0.0.1"}, nil
}
