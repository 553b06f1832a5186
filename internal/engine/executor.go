// internal/engine/executor.go
package engine

import (
	"fmt"
)

// Execute performs exactly one transaction on c.
// All-or-nothing: a failed or mismatched response yields no data.
func Execute(c Client, req Request) (Response, error) {
	switch req.Kind {
	case ReadCoils:
		bits, err := c.ReadCoils(req.Address, req.Quantity)
		if err != nil {
			return Response{}, txFail(err)
		}
		return bitsResponse(req, bits)

	case ReadInputDiscretes:
		bits, err := c.ReadDiscreteInputs(req.Address, req.Quantity)
		if err != nil {
			return Response{}, txFail(err)
		}
		return bitsResponse(req, bits)

	case ReadHoldingRegisters:
		regs, err := c.ReadHoldingRegisters(req.Address, req.Quantity)
		if err != nil {
			return Response{}, txFail(err)
		}
		return registersResponse(req, regs)

	case ReadInputRegisters:
		regs, err := c.ReadInputRegisters(req.Address, req.Quantity)
		if err != nil {
			return Response{}, txFail(err)
		}
		return registersResponse(req, regs)

	case WriteSingleRegister:
		if len(req.Registers) != 1 {
			return Response{}, fail(ErrValidation, "single register write needs exactly one register")
		}
		if err := c.WriteSingleRegister(req.Address, req.Registers[0]); err != nil {
			return Response{}, txFail(err)
		}
		return Response{}, nil

	case WriteMultipleRegisters:
		if err := c.WriteMultipleRegisters(req.Address, req.Registers); err != nil {
			return Response{}, txFail(err)
		}
		return Response{}, nil

	case WriteSingleCoil:
		if len(req.Bits) != 1 {
			return Response{}, fail(ErrValidation, "single coil write needs exactly one value")
		}
		if err := c.WriteSingleCoil(req.Address, req.Bits[0]); err != nil {
			return Response{}, txFail(err)
		}
		return Response{}, nil

	case WriteMultipleCoils:
		if err := c.WriteMultipleCoils(req.Address, req.Bits); err != nil {
			return Response{}, txFail(err)
		}
		return Response{}, nil

	default:
		return Response{}, fail(ErrUnsupportedOperation, string(req.Kind))
	}
}

func bitsResponse(req Request, bits []bool) (Response, error) {
	if len(bits) != int(req.Quantity) {
		return Response{}, fail(ErrTransactionFailure,
			fmt.Sprintf("got %d bits, want %d", len(bits), req.Quantity))
	}
	return Response{Bits: bits}, nil
}

func registersResponse(req Request, regs []uint16) (Response, error) {
	if len(regs) != int(req.Quantity) {
		return Response{}, fail(ErrTransactionFailure,
			fmt.Sprintf("got %d registers, want %d", len(regs), req.Quantity))
	}
	return Response{Registers: regs}, nil
}
