// Package audio provides the microphone capture pipeline, the speaker
// output, and the gapless playback scheduler. All wire audio is 16-bit
// signed little-endian PCM.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Chunk is an immutable unit of 16-bit signed little-endian PCM audio.
type Chunk struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration returns the playback duration of the chunk.
func (c Chunk) Duration() time.Duration {
	return PCM16Duration(len(c.Data), c.SampleRate, c.Channels)
}

// EncodeSample quantizes one float sample in [-1, 1] to 16-bit signed PCM:
// round(s * 32768) clamped to the int16 range. The mapping is monotonic.
func EncodeSample(s float32) int16 {
	v := math.Round(float64(s) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// DecodeSample converts one 16-bit PCM sample back to float: v / 32768.
func DecodeSample(v int16) float32 {
	return float32(v) / 32768.0
}

// EncodePCM16 converts float samples to 16-bit little-endian PCM bytes.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(EncodeSample(s)))
	}
	return out
}

// DecodePCM16 converts 16-bit little-endian PCM bytes to float samples.
// A trailing odd byte is ignored.
func DecodePCM16(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = DecodeSample(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return samples
}

// Float32LEBytes packs float samples as little-endian IEEE 754 bytes, the
// layout the speaker consumes.
func Float32LEBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// Float32LESamples unpacks little-endian IEEE 754 bytes to float samples.
func Float32LESamples(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}

// PCM16Duration returns the playback duration of n bytes of 16-bit PCM.
func PCM16Duration(n, sampleRate, channels int) time.Duration {
	bytesPerSecond := sampleRate * channels * 2
	if bytesPerSecond <= 0 || n <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bytesPerSecond))
}

// SamplesDuration returns the playback duration of n samples per channel
// worth of audio.
func SamplesDuration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 || n <= 0 {
		return 0
	}
	frames := n / channels
	return time.Duration(int64(frames) * int64(time.Second) / int64(sampleRate))
}
