package sinks

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.MaxOpenConns != 25 {
		t.Errorf("expected MaxOpenConns=25, got %d", c.MaxOpenConns)
	}
	if c.RetryAttempts != 3 {
		t.Errorf("expected RetryAttempts=3, got %d", c.RetryAttempts)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{DSN: "postgres://localhost:5432/test"}, false},
		{"empty dsn", Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigIdleConnsConstraint(t *testing.T) {
	c := Config{DSN: "postgres://localhost:5432/test", MaxOpenConns: 5, MaxIdleConns: 10}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		t.Errorf("expected MaxIdleConns (%d) <= MaxOpenConns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
}

func TestConnectInvalidDSN(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Connect(ctx, Config{DSN: "invalid-dsn", RetryAttempts: 0})
	if err == nil {
		t.Error("expected error for invalid DSN, got nil")
	}
}
