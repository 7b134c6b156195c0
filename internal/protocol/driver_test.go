package protocol

import (
	"strings"
	"testing"
)

type nopFactory struct{}

func (nopFactory) NewConn(string, *Credentials) (Conn, error) { return nil, nil }

func TestRegisterAndLookup(t *testing.T) {
	if _, err := Lookup("test-driver"); err != nil {
		Register("test-driver", nopFactory{})
	}
	f, err := Lookup("test-driver")
	if err != nil || f == nil {
		t.Fatalf("Lookup = %v, %v", f, err)
	}
	found := false
	for _, n := range Drivers() {
		if n == "test-driver" {
			found = true
		}
	}
	if !found {
		t.Errorf("Drivers() = %v", Drivers())
	}
	if _, err := Lookup("missing"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("Lookup(missing) err = %v", err)
	}
}

func TestRegisterPanics(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		f      Factory
	}{
		{"empty name", "", nopFactory{}},
		{"nil factory", "x", nil},
		{"duplicate", "dup-driver", nopFactory{}},
	}
	if _, err := Lookup("dup-driver"); err != nil {
		Register("dup-driver", nopFactory{})
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Register should panic")
				}
			}()
			Register(tt.driver, tt.f)
		})
	}
}
