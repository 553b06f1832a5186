// internal/engine/types.go
package engine

import (
	"net"
	"strconv"
	"time"

	"github.com/tamzrod/modbus-sampler/internal/codec"
)

// Kind selects one of the eight supported transactions.
// Values match the method names stored by the property storage.
type Kind string

const (
	ReadCoils            Kind = "Read Coils"
	ReadInputDiscretes   Kind = "Read Input Discretes"
	ReadHoldingRegisters Kind = "Read Holding Registers"
	ReadInputRegisters   Kind = "Read Input Registers"

	WriteSingleRegister    Kind = "Single Register"
	WriteMultipleRegisters Kind = "Multiple Registers"
	WriteSingleCoil        Kind = "Single Coil"
	WriteMultipleCoils     Kind = "Multiple Coils"
)

func (k Kind) IsRead() bool {
	switch k {
	case ReadCoils, ReadInputDiscretes, ReadHoldingRegisters, ReadInputRegisters:
		return true
	}
	return false
}

func (k Kind) IsWrite() bool {
	switch k {
	case WriteSingleRegister, WriteMultipleRegisters, WriteSingleCoil, WriteMultipleCoils:
		return true
	}
	return false
}

// bits reports whether k addresses coils or discrete inputs.
func (k Kind) bits() bool {
	switch k {
	case ReadCoils, ReadInputDiscretes, WriteSingleCoil, WriteMultipleCoils:
		return true
	}
	return false
}

// Protocol quantity limits per request.
const (
	MaxReadBits       = 2000
	MaxReadRegisters  = 125
	MaxWriteBits      = 1968
	MaxWriteRegisters = 123
)

// Endpoint is where a new connection is dialed.
type Endpoint struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Operation is the immutable per-invocation descriptor.
// Address, Length and Value stay raw text until validation.
type Operation struct {
	Kind     Kind
	Address  string
	Length   string
	Value    string
	DataType codec.DataType

	UseExistingConnection bool
	Endpoint              Endpoint
	RetryCount            int

	// KeepAlive < 0 closes now, 0 leaves open, > 0 closes after the duration.
	KeepAlive time.Duration

	// ResetOldValues writes zero/false values first (write kinds only).
	ResetOldValues bool
}

// Request is one validated, encoded transaction.
type Request struct {
	Kind      Kind
	Address   uint16
	Quantity  uint16
	Registers []uint16 // register writes
	Bits      []bool   // coil writes
}

// Response is the raw wire data of one transaction.
// Exactly one of these is used depending on Kind; writes return neither.
type Response struct {
	Bits      []bool
	Registers []uint16
}

// Result is what the host receives, exactly once per invocation.
type Result struct {
	Successful bool
	Message    string
	Payload    []byte
}

// Client is the transactional surface of a connection.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
	WriteSingleCoil(addr uint16, on bool) error              // FC 5
	WriteSingleRegister(addr, value uint16) error            // FC 6
	WriteMultipleCoils(addr uint16, bits []bool) error       // FC 15
	WriteMultipleRegisters(addr uint16, regs []uint16) error // FC 16
}

// Conn is a live connection as held by the slot.
type Conn interface {
	Client
	IsConnected() bool
	Close() error
}
