// internal/codec/codec_test.go
package codec

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFloat_RoundTripBitExact(t *testing.T) {
	regs, err := EncodeRegisters(Float, "3.14")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(regs))
	}

	want := math.Float32bits(3.14)
	if regs[0] != uint16(want>>16) || regs[1] != uint16(want) {
		t.Fatalf("word order mismatch: got=%04x %04x want=%08x", regs[0], regs[1], want)
	}

	got := RegistersToFloat(regs[0], regs[1])
	if math.Float32bits(got) != want {
		t.Fatalf("round trip mismatch: got=%v want=%v", got, float32(3.14))
	}

	text, err := DecodeRegisters(Float, regs)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if text != "3.14" {
		t.Fatalf("decode text: got=%q want=%q", text, "3.14")
	}
}

func TestFloat_MultipleValues(t *testing.T) {
	regs, err := EncodeRegisters(Float, "1.5, 2.5")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if len(regs) != 4 {
		t.Fatalf("expected 4 registers, got %d", len(regs))
	}

	text, err := DecodeRegisters(Float, regs)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if text != "1.5,2.5" {
		t.Fatalf("got=%q want=%q", text, "1.5,2.5")
	}
}

func TestFloat_OddTrailingRegisterDropped(t *testing.T) {
	regs := append(FloatToRegisters(1.5), 0x1234)

	text, err := DecodeRegisters(Float, regs)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if text != "1.5" {
		t.Fatalf("got=%q want=%q", text, "1.5")
	}
}

func TestString_Packing(t *testing.T) {
	regs, err := EncodeRegisters(String, "AB")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("expected 1 register, got %d", len(regs))
	}
	// low byte = first char
	if regs[0] != uint16('A')|uint16('B')<<8 {
		t.Fatalf("packing mismatch: got=%04x", regs[0])
	}

	text, err := DecodeRegisters(String, regs)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if text != "AB" {
		t.Fatalf("got=%q want=%q", text, "AB")
	}
}

func TestString_OddLengthPadsZero(t *testing.T) {
	regs, err := EncodeRegisters(String, "A")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("expected 1 register, got %d", len(regs))
	}
	if regs[0]>>8 != 0 {
		t.Fatalf("second byte should be 0, got=%04x", regs[0])
	}

	text, _ := DecodeRegisters(String, regs)
	if text != "A\u0000" {
		t.Fatalf("got=%q want=%q", text, "A\u0000")
	}
}

func TestString_KeepsCommas(t *testing.T) {
	regs, err := EncodeRegisters(String, "a,b")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(regs))
	}
}

func TestString_RejectsWideCharacters(t *testing.T) {
	if _, err := EncodeRegisters(String, "Ω"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestBoolean_RegisterDecode(t *testing.T) {
	text, err := DecodeRegisters(Boolean, []uint16{0, 5})
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if text != "false,true" {
		t.Fatalf("got=%q want=%q", text, "false,true")
	}
}

func TestBoolean_RegisterEncode(t *testing.T) {
	regs, err := EncodeRegisters(Boolean, "true,false")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if !reflect.DeepEqual(regs, []uint16{1, 0}) {
		t.Fatalf("got=%v", regs)
	}
}

func TestIntegerAndHex(t *testing.T) {
	regs, err := EncodeRegisters(Integer, " 1, 65535 ,-1")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if !reflect.DeepEqual(regs, []uint16{1, 0xFFFF, 0xFFFF}) {
		t.Fatalf("got=%v", regs)
	}

	text, _ := DecodeRegisters(Integer, []uint16{1, 0xFFFF})
	if text != "1,65535" {
		t.Fatalf("integer decode got=%q", text)
	}

	regs, err = EncodeRegisters(Hexadecimal, "0x1F,ff")
	if err != nil {
		t.Fatalf("hex encode err=%v", err)
	}
	if !reflect.DeepEqual(regs, []uint16{0x1F, 0xFF}) {
		t.Fatalf("got=%v", regs)
	}

	text, _ = DecodeRegisters(Hexadecimal, []uint16{0x1F, 0xABCD})
	if text != "1f,abcd" {
		t.Fatalf("hex decode got=%q", text)
	}
}

func TestInvalidValues(t *testing.T) {
	cases := []struct {
		dt    DataType
		value string
	}{
		{Integer, "70000"},
		{Integer, "abc"},
		{Hexadecimal, "0x10000"},
		{Float, "1.5,x"},
		{Boolean, "maybe"},
	}
	for _, c := range cases {
		if _, err := EncodeRegisters(c.dt, c.value); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("%s %q: expected ErrInvalidValue, got %v", c.dt, c.value, err)
		}
	}
}

func TestUnsupportedDataType(t *testing.T) {
	if _, err := DecodeRegisters("Double", []uint16{1}); !errors.Is(err, ErrUnsupportedDataType) {
		t.Fatalf("decode: expected ErrUnsupportedDataType, got %v", err)
	}
	if _, err := EncodeRegisters("Double", "1"); !errors.Is(err, ErrUnsupportedDataType) {
		t.Fatalf("encode: expected ErrUnsupportedDataType, got %v", err)
	}
}

func TestCoils(t *testing.T) {
	bits, err := EncodeCoils("true, false,1")
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if !reflect.DeepEqual(bits, []bool{true, false, true}) {
		t.Fatalf("got=%v", bits)
	}
	if s := DecodeCoils(bits); s != "true,false,true" {
		t.Fatalf("decode got=%q", s)
	}
}
