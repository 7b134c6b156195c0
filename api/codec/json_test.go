package codec

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestJSON_Registered(t *testing.T) {
	c := encoding.GetCodec(Name)
	if c == nil {
		t.Fatal("json codec not registered")
	}
	if c.Name() != "json" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestJSON_EmptyPayload(t *testing.T) {
	var v struct{ A string }
	if err := (JSON{}).Unmarshal(nil, &v); err != nil {
		t.Errorf("Unmarshal(nil) = %v, want nil", err)
	}
}
