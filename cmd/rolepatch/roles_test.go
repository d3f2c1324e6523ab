package main

import (
	"testing"
)

func TestNewRolesCmd(t *testing.T) {
	cmd := newRolesCmd()

	if cmd.Use != "roles <template>" {
		t.Errorf("Use = %q, want 'roles <template>'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	flag := cmd.Flags().Lookup("format")
	if flag == nil {
		t.Fatal("missing --format flag")
	}

	if flag.DefValue != "text" {
		t.Errorf("format default = %q, want 'text'", flag.DefValue)
	}
}
