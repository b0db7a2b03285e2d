package muse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	wav "github.com/youpy/go-wav"
)

// WAV fmt chunk codes.
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

type wavHeader struct {
	RIFF       [4]byte
	Size       uint32
	WAVE       [4]byte
	Fmt        [4]byte
	FmtSize    uint32
	Format     uint16
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	Data       [4]byte
	DataSize   uint32
}

// EncodeWAVFloat32LE returns a 32-bit IEEE float WAV of interleaved samples.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := uint32(len(samples) * 4)
	h := wavHeader{
		RIFF:       [4]byte{'R', 'I', 'F', 'F'},
		Size:       36 + dataSize,
		WAVE:       [4]byte{'W', 'A', 'V', 'E'},
		Fmt:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:    16,
		Format:     wavFormatFloat,
		Channels:   uint16(channels),
		SampleRate: uint32(sampleRate),
		ByteRate:   uint32(sampleRate * channels * 4),
		BlockAlign: uint16(channels * 4),
		Bits:       32,
		Data:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:   dataSize,
	}
	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, h)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// EncodeWAVPCM16 writes interleaved samples as 16-bit PCM, clipping to
// [-1, 1].
func EncodeWAVPCM16(w io.Writer, samples []float32, sampleRate int, channels int) error {
	if channels < 1 || channels > 2 {
		return fmt.Errorf("wav: %d channels not supported", channels)
	}
	frames := len(samples) / channels
	ww := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), 16)
	out := make([]wav.Sample, frames)
	for i := range out {
		for c := 0; c < channels; c++ {
			v := math.Max(-1, math.Min(1, float64(samples[i*channels+c])))
			out[i].Values[c] = int(math.Round(v * math.MaxInt16))
		}
	}
	return ww.WriteSamples(out)
}

// DecodeWAV reads a PCM (16, 24 or 32 bit) or 32-bit float WAV and returns
// interleaved samples scaled to [-1, 1].
func DecodeWAV(data []byte) (samples []float32, sampleRate, channels int, err error) {
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wav: %w", err)
	}
	switch {
	case format.AudioFormat == wavFormatPCM && format.BitsPerSample >= 16:
	case format.AudioFormat == wavFormatFloat && format.BitsPerSample == 32:
	default:
		return nil, 0, 0, fmt.Errorf("wav: unsupported format %d with %d bits", format.AudioFormat, format.BitsPerSample)
	}
	channels = int(format.NumChannels)
	if channels < 1 || channels > 2 {
		return nil, 0, 0, fmt.Errorf("wav: %d channels not supported", channels)
	}
	for {
		block, err := r.ReadSamples()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, 0, fmt.Errorf("wav: %w", err)
		}
		for _, s := range block {
			for c := 0; c < channels; c++ {
				samples = append(samples, float32(r.FloatValue(s, uint(c))))
			}
		}
	}
	return samples, int(format.SampleRate), channels, nil
}
