// internal/engine/request.go
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tamzrod/modbus-sampler/internal/codec"
)

// BuildRequest validates op and encodes its values into wire form.
func BuildRequest(op Operation) (Request, error) {
	switch {
	case op.Kind.IsRead():
		return buildRead(op)
	case op.Kind.IsWrite():
		return buildWrite(op)
	default:
		return Request{}, fail(ErrUnsupportedOperation, string(op.Kind))
	}
}

func buildRead(op Operation) (Request, error) {
	if strings.TrimSpace(op.Address) == "" || strings.TrimSpace(op.Length) == "" {
		return Request{}, fail(ErrValidation, "address and length fields cannot be empty")
	}
	addr, err := parseUint16("address", op.Address)
	if err != nil {
		return Request{}, err
	}
	qty, err := parseUint16("length", op.Length)
	if err != nil {
		return Request{}, err
	}

	limit := MaxReadRegisters
	if op.Kind.bits() {
		limit = MaxReadBits
	} else if !op.DataType.Valid() {
		return Request{}, fail(ErrUnsupportedDataType, string(op.DataType))
	}
	if err := checkQuantity(int(qty), limit); err != nil {
		return Request{}, err
	}

	return Request{Kind: op.Kind, Address: addr, Quantity: qty}, nil
}

func buildWrite(op Operation) (Request, error) {
	if strings.TrimSpace(op.Address) == "" || op.Value == "" {
		return Request{}, fail(ErrValidation, "address and value fields cannot be empty")
	}
	addr, err := parseUint16("address", op.Address)
	if err != nil {
		return Request{}, err
	}

	req := Request{Kind: op.Kind, Address: addr}

	if op.Kind.bits() {
		bits, err := codec.EncodeCoils(op.Value)
		if err != nil {
			return Request{}, codecError(err)
		}
		if op.Kind == WriteSingleCoil && len(bits) != 1 {
			return Request{}, fail(ErrValidation, fmt.Sprintf("single coil takes one value, got %d", len(bits)))
		}
		if err := checkQuantity(len(bits), MaxWriteBits); err != nil {
			return Request{}, err
		}
		req.Bits = bits
		req.Quantity = uint16(len(bits))
		return req, nil
	}

	regs, err := codec.EncodeRegisters(op.DataType, op.Value)
	if err != nil {
		return Request{}, codecError(err)
	}
	if op.Kind == WriteSingleRegister && len(regs) != 1 {
		return Request{}, fail(ErrValidation,
			fmt.Sprintf("single register takes one register, %s value encodes to %d", op.DataType, len(regs)))
	}
	if err := checkQuantity(len(regs), MaxWriteRegisters); err != nil {
		return Request{}, err
	}
	req.Registers = regs
	req.Quantity = uint16(len(regs))
	return req, nil
}

// ResetRequest is the zero/false write of the same kind and address as req.
// A non-empty op.Length sets the reset width, otherwise req's width is used.
func ResetRequest(op Operation, req Request) (Request, error) {
	n := int(req.Quantity)
	if strings.TrimSpace(op.Length) != "" && (req.Kind == WriteMultipleRegisters || req.Kind == WriteMultipleCoils) {
		qty, err := parseUint16("length", op.Length)
		if err != nil {
			return Request{}, err
		}
		n = int(qty)
	}

	out := Request{Kind: req.Kind, Address: req.Address, Quantity: uint16(n)}
	switch req.Kind {
	case WriteSingleRegister:
		out.Registers, out.Quantity = []uint16{0}, 1
	case WriteSingleCoil:
		out.Bits, out.Quantity = []bool{false}, 1
	case WriteMultipleRegisters:
		if err := checkQuantity(n, MaxWriteRegisters); err != nil {
			return Request{}, err
		}
		out.Registers = make([]uint16, n)
	case WriteMultipleCoils:
		if err := checkQuantity(n, MaxWriteBits); err != nil {
			return Request{}, err
		}
		out.Bits = make([]bool, n)
	default:
		return Request{}, fail(ErrUnsupportedOperation, "reset for "+string(req.Kind))
	}
	return out, nil
}

// DecodePayload renders a read response as the host payload.
// Writes carry no payload.
func DecodePayload(op Operation, resp Response) ([]byte, error) {
	switch {
	case op.Kind == ReadCoils || op.Kind == ReadInputDiscretes:
		return []byte(codec.DecodeCoils(resp.Bits)), nil
	case op.Kind.IsRead():
		s, err := codec.DecodeRegisters(op.DataType, resp.Registers)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	default:
		return nil, nil
	}
}

func parseUint16(field, s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fail(ErrValidation, fmt.Sprintf("%s %q is not a 16-bit unsigned number", field, s))
	}
	return uint16(v), nil
}

func checkQuantity(n, limit int) error {
	if n < 1 || n > limit {
		return fail(ErrValidation, fmt.Sprintf("quantity %d out of range 1..%d", n, limit))
	}
	return nil
}

// codecError keeps unsupported data types as their own kind and reports
// any other codec failure as a validation error.
func codecError(err error) error {
	if errors.Is(err, codec.ErrUnsupportedDataType) {
		return err
	}
	return fail(ErrValidation, err)
}
