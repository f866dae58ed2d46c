package mp3

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// mockMP3Reader simulates the gomp3.Decoder for testing. Like the real
// decoder it always emits 16-bit little-endian stereo frames.
type mockMP3Reader struct {
	sampleRate int
	frames     [][2]int16 // stereo frames
	offset     int
}

func (m *mockMP3Reader) SampleRate() int {
	return m.sampleRate
}

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.offset >= len(m.frames) {
		return 0, io.EOF
	}

	framesToRead := len(buf) / 4
	framesAvailable := len(m.frames) - m.offset
	if framesToRead > framesAvailable {
		framesToRead = framesAvailable
	}

	for i := 0; i < framesToRead; i++ {
		f := m.frames[m.offset+i]
		binary.LittleEndian.PutUint16(buf[4*i:4*i+2], uint16(f[0]))
		binary.LittleEndian.PutUint16(buf[4*i+2:4*i+4], uint16(f[1]))
	}

	m.offset += framesToRead

	if m.offset >= len(m.frames) {
		return framesToRead * 4, io.EOF
	}

	return framesToRead * 4, nil
}

// dualMono builds frames with identical left and right samples, the way
// go-mp3 renders mono source streams.
func dualMono(samples []int16) [][2]int16 {
	frames := make([][2]int16, len(samples))
	for i, s := range samples {
		frames[i] = [2]int16{s, s}
	}
	return frames
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	invalidData := []byte("This is not MP3 data")

	decoder := Decoder{}
	_, err := decoder.Decode(bytes.NewReader(invalidData))

	if err == nil {
		t.Error("Decode() error = nil, want error for invalid data")
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	t.Parallel()

	decoder := Decoder{}
	_, err := decoder.Decode(bytes.NewReader([]byte{}))

	if err == nil {
		t.Error("Decode() error = nil, want error for empty input")
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	mockReader := &mockMP3Reader{
		sampleRate: 44100,
		frames:     dualMono(make([]int16, 100)),
	}

	src := &source{
		dec:        mockReader,
		sampleRate: 44100,
		buf:        make([]byte, 8192),
	}

	if src.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", src.SampleRate())
	}

	// Output is always mono regardless of the decoded stream
	if src.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", src.Channels())
	}

	if src.BufSize() <= 0 {
		t.Errorf("BufSize() = %d, want positive value", src.BufSize())
	}
}

func TestSource_DualMonoSurvivesFold(t *testing.T) {
	t.Parallel()

	// Mono source material comes out of go-mp3 as dual-mono; averaging
	// must reproduce the original samples exactly.
	samples := []int16{0, 16384, 32767, -16384, -32768, 8192}

	mockReader := &mockMP3Reader{
		sampleRate: 8000,
		frames:     dualMono(samples),
	}

	src := &source{
		dec:        mockReader,
		sampleRate: 8000,
		buf:        make([]byte, 8192),
	}

	dst := make([]float32, len(samples))
	n, err := src.ReadSamples(dst)

	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	if n != len(samples) {
		t.Errorf("ReadSamples() n = %d, want %d", n, len(samples))
	}

	expected := []float32{0.0, 0.5, 32767.0 / 32768.0, -0.5, -1.0, 0.25}
	for i := 0; i < n; i++ {
		if math.Abs(float64(dst[i]-expected[i])) > 0.0001 {
			t.Errorf("dst[%d] = %v, want ≈%v", i, dst[i], expected[i])
		}
	}
}

func TestSource_StereoAveraged(t *testing.T) {
	t.Parallel()

	frames := [][2]int16{
		{16384, -16384}, // cancels to 0
		{16384, 0},      // averages to 0.25
		{32767, 32767},  // stays at full scale
	}

	mockReader := &mockMP3Reader{
		sampleRate: 44100,
		frames:     frames,
	}

	src := &source{
		dec:        mockReader,
		sampleRate: 44100,
		buf:        make([]byte, 8192),
	}

	dst := make([]float32, 3)
	n, err := src.ReadSamples(dst)

	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("ReadSamples() n = %d, want 3", n)
	}

	expected := []float32{0.0, 0.25, 32767.0 / 32768.0}
	for i := 0; i < n; i++ {
		if math.Abs(float64(dst[i]-expected[i])) > 0.0001 {
			t.Errorf("dst[%d] = %v, want ≈%v", i, dst[i], expected[i])
		}
	}
}

func TestSource_ReadSamples_EOF(t *testing.T) {
	t.Parallel()

	mockReader := &mockMP3Reader{
		sampleRate: 8000,
		frames:     dualMono([]int16{100, 200, 300, 400}),
	}

	src := &source{
		dec:        mockReader,
		sampleRate: 8000,
		buf:        make([]byte, 8192),
	}

	dst := make([]float32, 4)
	n1, err1 := src.ReadSamples(dst)

	if err1 != io.EOF {
		t.Errorf("ReadSamples() error = %v, want io.EOF", err1)
	}
	if n1 != 4 {
		t.Errorf("ReadSamples() n = %d, want 4", n1)
	}

	n2, err2 := src.ReadSamples(dst)
	if err2 != io.EOF {
		t.Errorf("Second ReadSamples() error = %v, want io.EOF", err2)
	}
	if n2 != 0 {
		t.Errorf("Second ReadSamples() n = %d, want 0", n2)
	}
}

func TestSource_ReadSamples_PartialRead(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 10)
	for i := range samples {
		samples[i] = int16(i * 1000)
	}

	mockReader := &mockMP3Reader{
		sampleRate: 8000,
		frames:     dualMono(samples),
	}

	src := &source{
		dec:        mockReader,
		sampleRate: 8000,
		buf:        make([]byte, 8192),
	}

	dst := make([]float32, 4)
	n1, err1 := src.ReadSamples(dst)
	if err1 != nil && err1 != io.EOF {
		t.Fatalf("First ReadSamples() error = %v", err1)
	}
	if n1 != 4 {
		t.Errorf("First ReadSamples() n = %d, want 4", n1)
	}

	n2, err2 := src.ReadSamples(dst)
	if err2 != nil && err2 != io.EOF {
		t.Fatalf("Second ReadSamples() error = %v", err2)
	}
	if n2 != 4 {
		t.Errorf("Second ReadSamples() n = %d, want 4", n2)
	}

	n3, err3 := src.ReadSamples(dst)
	if err3 != io.EOF {
		t.Errorf("Third ReadSamples() error = %v, want io.EOF", err3)
	}
	if n3 != 2 {
		t.Errorf("Third ReadSamples() n = %d, want 2", n3)
	}
}

func TestSource_BufferResize(t *testing.T) {
	t.Parallel()

	mockReader := &mockMP3Reader{
		sampleRate: 44100,
		frames:     dualMono(make([]int16, 1000)),
	}

	// Start with a small internal buffer
	src := &source{
		dec:        mockReader,
		sampleRate: 44100,
		buf:        make([]byte, 100),
	}

	initialCap := cap(src.buf)

	dst := make([]float32, 1000)
	_, err := src.ReadSamples(dst)

	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	if cap(src.buf) <= initialCap {
		t.Errorf("Buffer capacity = %d, want > %d (should have grown)", cap(src.buf), initialCap)
	}
}

func TestSource_Close(t *testing.T) {
	t.Parallel()

	src := &source{
		dec:        &mockMP3Reader{sampleRate: 44100},
		sampleRate: 44100,
		buf:        make([]byte, 8192),
	}

	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

// BenchmarkSource_ReadSamples benchmarks reading and folding samples
func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int16, 44100)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	mockReader := &mockMP3Reader{
		sampleRate: 44100,
		frames:     dualMono(samples),
	}

	src := &source{
		dec:        mockReader,
		sampleRate: 44100,
		buf:        make([]byte, 8192),
	}

	dst := make([]float32, 4096)

	b.ResetTimer()
	b.ReportAllocs()

	for li := 0; li < b.N; li++ {
		mockReader.offset = 0
		_, _ = src.ReadSamples(dst)
	}
}
