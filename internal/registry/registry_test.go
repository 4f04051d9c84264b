package registry

import (
	"testing"

	"github.com/DNAi-inc/DNExif-sub006/internal/types"
)

// mockCodec implements Codec for testing.
type mockCodec struct {
	name string
}

func (m *mockCodec) Write(data []byte, req types.Request, cfg types.WriteConfig) ([]byte, error) {
	return data, nil
}

func TestRegisterAndGet(t *testing.T) {
	// Use a format that's unlikely to conflict with real registrations
	format := types.Format(999)
	codec := &mockCodec{name: "test"}

	Register(format, codec)

	got := Get(format)
	if got == nil {
		t.Fatal("Get() returned nil for registered format")
	}
	mc, ok := got.(*mockCodec)
	if !ok {
		t.Fatal("Get() returned wrong codec type")
	}
	if mc.name != "test" {
		t.Errorf("Codec name = %q, want %q", mc.name, "test")
	}
}

func TestGet_Unregistered(t *testing.T) {
	if got := Get(types.Format(998)); got != nil {
		t.Errorf("Get() = %v for unregistered format, want nil", got)
	}
}

func TestRegister_Overwrites(t *testing.T) {
	format := types.Format(997)

	Register(format, &mockCodec{name: "first"})
	Register(format, &mockCodec{name: "second"})

	mc, ok := Get(format).(*mockCodec)
	if !ok {
		t.Fatal("Get() returned wrong codec type")
	}
	if mc.name != "second" {
		t.Errorf("Codec name = %q, want %q (should be overwritten)", mc.name, "second")
	}
}
