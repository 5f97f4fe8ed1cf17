package stream

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/cwbudde/algo-emg/emg"
)

// Wire layout, little-endian:
//
//	int64   timestamp (unix nanoseconds)
//	uint64  sample rate (float64 bits)
//	uint16  channel count
//	uint32  samples per channel
//	float32 samples, channel-major
const headerSize = 8 + 8 + 2 + 4

var (
	// ErrShortMessage reports a payload smaller than its header claims.
	ErrShortMessage = errors.New("stream: message too short")

	// ErrEmptyChunk reports a chunk without channels or samples.
	ErrEmptyChunk = errors.New("stream: chunk has no samples")
)

// EncodeChunk serializes a chunk for publishing.
func EncodeChunk(chunk emg.Chunk) ([]byte, error) {
	channels := chunk.Channels()
	if channels == 0 || chunk.Len() == 0 {
		return nil, ErrEmptyChunk
	}

	n := chunk.Len()
	out := make([]byte, headerSize+4*channels*n)

	binary.LittleEndian.PutUint64(out[0:], uint64(chunk.Timestamp.UnixNano()))
	binary.LittleEndian.PutUint64(out[8:], math.Float64bits(chunk.SampleRate))
	binary.LittleEndian.PutUint16(out[16:], uint16(channels))
	binary.LittleEndian.PutUint32(out[18:], uint32(n))

	off := headerSize
	for _, samples := range chunk.Samples {
		for _, v := range samples {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(float32(v)))
			off += 4
		}
	}

	return out, nil
}

// DecodeChunk parses a published chunk.
func DecodeChunk(data []byte) (emg.Chunk, error) {
	if len(data) < headerSize {
		return emg.Chunk{}, ErrShortMessage
	}

	ts := int64(binary.LittleEndian.Uint64(data[0:]))
	sampleRate := math.Float64frombits(binary.LittleEndian.Uint64(data[8:]))
	channels := int(binary.LittleEndian.Uint16(data[16:]))
	n := int(binary.LittleEndian.Uint32(data[18:]))

	if channels == 0 || n == 0 {
		return emg.Chunk{}, ErrEmptyChunk
	}

	if len(data) < headerSize+4*channels*n {
		return emg.Chunk{}, ErrShortMessage
	}

	samples := make([][]float64, channels)
	off := headerSize

	for ch := range samples {
		buf := make([]float64, n)
		for i := range buf {
			bits := binary.LittleEndian.Uint32(data[off:])
			buf[i] = float64(math.Float32frombits(bits))
			off += 4
		}
		samples[ch] = buf
	}

	return emg.Chunk{
		Timestamp:  time.Unix(0, ts),
		SampleRate: sampleRate,
		Samples:    samples,
	}, nil
}
