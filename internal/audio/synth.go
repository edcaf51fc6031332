package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"gymtimer/internal/core/tones"
)

// DefaultSampleRate is used when a Player is not given one.
const DefaultSampleRate = 44100

// decayFloor is the gain a tone's envelope reaches at its end.
const decayFloor = 0.001

// Render synthesizes tone as signed 16-bit mono samples. The gain starts at
// the tone's volume and decays exponentially to decayFloor at its duration.
// Delay is not rendered; callers schedule it.
func Render(tone tones.Tone, sampleRate int) []int16 {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	count := int(tone.Duration.Seconds() * float64(sampleRate))
	if count <= 0 || tone.Volume <= 0 {
		return nil
	}

	start := tone.Volume
	if start > 1 {
		start = 1
	}
	end := decayFloor
	if end > start {
		end = start
	}
	// gain(t) = start * (end/start)^(t/duration)
	ratio := math.Log(end / start)

	samples := make([]int16, count)
	for i := range samples {
		position := float64(i) / float64(count)
		gain := start * math.Exp(ratio*position)
		phase := math.Mod(tone.Frequency*float64(i)/float64(sampleRate), 1)
		samples[i] = int16(math.Round(oscillate(tone.Waveform, phase) * gain * math.MaxInt16))
	}
	return samples
}

// oscillate returns the waveform value in [-1, 1] at phase in [0, 1).
func oscillate(waveform tones.Waveform, phase float64) float64 {
	switch waveform {
	case tones.Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case tones.Triangle:
		if phase < 0.25 {
			return 4 * phase
		}
		if phase < 0.75 {
			return 2 - 4*phase
		}
		return 4*phase - 4
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// EncodeWAV wraps mono 16-bit samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := uint32(len(samples) * 2)
	blockAlign := uint16(channels * bitsPerSample / 8)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate)*uint32(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// Length returns how long samples play at sampleRate.
func Length(samples []int16, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
}
