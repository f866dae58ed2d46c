package audio

import (
	"errors"
	"io"
	"testing"
)

// mockDecoder is a test decoder implementation
type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(r io.Reader) (Source, error) {
	return newSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "wav"}

	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}

	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}
}

func TestRegistry_GetNonExistent(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	_, ok := registry.Get("nonexistent")
	if ok {
		t.Error("Registry.Get() returned ok=true for non-existent format")
	}
}

func TestRegistry_ExtensionNormalized(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "wav"}
	registry.Register("wav", decoder)

	// Lookups must tolerate the leading dot filepath.Ext leaves on, and
	// be case insensitive.
	tests := []string{"wav", ".wav", "WAV", ".WAV", "Wav"}

	for _, ext := range tests {
		t.Run(ext, func(t *testing.T) {
			got, ok := registry.Get(ext)
			if !ok {
				t.Fatalf("Registry.Get(%q) failed", ext)
			}
			if got != decoder {
				t.Errorf("Registry.Get(%q) returned wrong decoder", ext)
			}
		})
	}
}

func TestRegistry_MultipleFormats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &mockDecoder{name: "wav"}
	mp3Decoder := &mockDecoder{name: "mp3"}
	oggDecoder := &mockDecoder{name: "ogg"}

	registry.Register("wav", wavDecoder)
	registry.Register("mp3", mp3Decoder)
	registry.Register("ogg", oggDecoder)

	tests := []struct {
		format string
		want   Decoder
		wantOK bool
	}{
		{"wav", wavDecoder, true},
		{"mp3", mp3Decoder, true},
		{"ogg", oggDecoder, true},
		{"flac", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, ok := registry.Get(tt.format)
			if ok != tt.wantOK {
				t.Errorf("Registry.Get(%q) ok = %v, want %v", tt.format, ok, tt.wantOK)
			}
			if tt.wantOK && got != tt.want {
				t.Errorf("Registry.Get(%q) returned wrong decoder", tt.format)
			}
		})
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder1 := &mockDecoder{name: "first"}
	decoder2 := &mockDecoder{name: "second"}

	registry.Register("wav", decoder1)
	registry.Register("wav", decoder2)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed after overwrite")
	}

	if got != decoder2 {
		t.Error("Registry.Get() did not return the overwritten decoder")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "test"}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			registry.Register("format", decoder)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		go func(id int) {
			_, _ = registry.Get("format")
			done <- true
		}(i)
	}

	for li := 0; li < 20; li++ {
		<-done
	}

	got, ok := registry.Get("format")
	if !ok {
		t.Error("Registry.Get() failed after concurrent operations")
	}
	if got != decoder {
		t.Error("Registry returned wrong decoder after concurrent operations")
	}
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	if registry == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if registry.codecs == nil {
		t.Error("NewRegistry() did not initialize codecs map")
	}

	if registry.mtx == nil {
		t.Error("NewRegistry() did not initialize mutex")
	}
}

func TestErrorTaxonomy_Distinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrValidation, ErrFormat, ErrNotFound, ErrInvalidCode, ErrRateMismatch,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches unrelated sentinel %v", a, b)
			}
		}
	}
}

// BenchmarkRegistry_Get benchmarks retrieving decoders
func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	decoder := &mockDecoder{}
	registry.Register("wav", decoder)

	b.ResetTimer()
	b.ReportAllocs()

	for li := 0; li < b.N; li++ {
		_, _ = registry.Get("wav")
	}
}
