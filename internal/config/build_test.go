// internal/config/build_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tamzrod/modbus-sampler/internal/engine"
)

const samplePlan = `
plan:
  threads: 2
  iterations: 5
  samplers:
    - name: connect
      type: connect
      ip_address: 127.0.0.1
      port: "5020"
      keep_alive: "-1"
    - name: read-hr
      type: read
      use_existing_connection: true
      method: Read Holding Registers
      address: "0"
      length: "4"
      data_type: Float
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(samplePlan), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	if cfg.Plan.Threads != 2 || len(cfg.Plan.Samplers) != 2 {
		t.Fatalf("unexpected plan %+v", cfg.Plan)
	}
	if cfg.Plan.Samplers[1].Method != "Read Holding Registers" {
		t.Fatalf("unexpected method %q", cfg.Plan.Samplers[1].Method)
	}
}

func TestParse_UnknownKey(t *testing.T) {
	if _, err := Parse([]byte("plan:\n  thread: 2\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected error for empty plan")
	}
}

func TestBuild_NewConnection(t *testing.T) {
	op, err := Build(SamplerConfig{
		Name:      "r",
		Type:      TypeRead,
		Method:    "Read Input Registers",
		IPAddress: " plc.local ",
		Port:      "502",
		KeepAlive: "1500",
		Address:   "10",
		Length:    "2",
		DataType:  "Hexadecimal",
	})
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}

	if op.Kind != engine.ReadInputRegisters {
		t.Fatalf("unexpected kind %q", op.Kind)
	}
	if op.Endpoint.Host != "plc.local" || op.Endpoint.Port != 502 {
		t.Fatalf("unexpected endpoint %+v", op.Endpoint)
	}
	if op.Endpoint.Timeout != 2*time.Second || op.RetryCount != 3 {
		t.Fatalf("defaults not applied: %+v", op)
	}
	if op.KeepAlive != 1500*time.Millisecond {
		t.Fatalf("unexpected keep alive %v", op.KeepAlive)
	}
}

func TestBuild_NegativeKeepAlive(t *testing.T) {
	op, err := Build(SamplerConfig{Type: TypeConnect, Port: "502", KeepAlive: "-1"})
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}
	if op.KeepAlive >= 0 {
		t.Fatalf("expected negative keep alive, got %v", op.KeepAlive)
	}
}

func TestBuild_ReuseSkipsConnectionProperties(t *testing.T) {
	op, err := Build(SamplerConfig{
		Type:                  TypeWrite,
		Method:                "Single Coil",
		Value:                 "true",
		Port:                  "not parsed",
		UseExistingConnection: true,
	})
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}
	if !op.UseExistingConnection {
		t.Fatalf("expected reuse mode")
	}
}

func TestBuild_ReuseKeepsRetryCount(t *testing.T) {
	base := SamplerConfig{
		Type:                  TypeRead,
		Method:                "Read Coils",
		Address:               "0",
		Length:                "1",
		UseExistingConnection: true,
	}

	s := base
	s.RetryCount = "5"
	op, err := Build(s)
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}
	if op.RetryCount != 5 {
		t.Fatalf("expected configured retry count 5, got %d", op.RetryCount)
	}

	op, err = Build(base)
	if err != nil {
		t.Fatalf("Build err=%v", err)
	}
	if op.RetryCount != 3 {
		t.Fatalf("expected default retry count 3, got %d", op.RetryCount)
	}

	s = base
	s.RetryCount = "many"
	if _, err := Build(s); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBuild_BadProperties(t *testing.T) {
	cases := []SamplerConfig{
		{Type: TypeConnect, Port: ""},
		{Type: TypeConnect, Port: "70000"},
		{Type: TypeConnect, Port: "502", Timeout: "-5"},
		{Type: TypeConnect, Port: "502", RetryCount: "three"},
		{Type: TypeConnect, Port: "502", KeepAlive: "1.5"},
	}

	for _, s := range cases {
		if _, err := Build(s); !errors.Is(err, engine.ErrValidation) {
			t.Fatalf("%+v: expected ErrValidation, got %v", s, err)
		}
	}
}
