package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SamplesToWAV encodes float32 PCM samples as a WAV byte slice.
func SamplesToWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	totalLen := 44 + dataLen

	buf := make([]byte, totalLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(totalLen-8))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], 2)                    // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                   // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		clamped := max(-1.0, min(1.0, s))
		val := int16(clamped * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(val))
	}

	return buf
}

// WAVToSamples parses a mono 16-bit PCM WAV file and returns its samples
// normalized to [-1, 1] along with its declared sample rate. It walks RIFF
// chunks rather than assuming the canonical 44-byte header, since TTS
// backends sometimes emit extra chunks (e.g. "LIST").
func WAVToSamples(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var sampleRate int
	var bitsPerSample int
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("short fmt chunk")
			}
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			if bitsPerSample != 16 {
				return nil, 0, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
			}
			n := size / 2
			samples := make([]float32, n)
			for i := 0; i < n; i++ {
				s := int16(binary.LittleEndian.Uint16(data[body+i*2 : body+i*2+2]))
				samples[i] = float32(s) / math.MaxInt16
			}
			return samples, sampleRate, nil
		}

		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	return nil, 0, fmt.Errorf("no data chunk found")
}
