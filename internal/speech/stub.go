package speech

import (
	"context"
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSyllablesPerMinute = 180.0

	wavSampleRate      = 16000
	wavNumChannels     = 1
	wavBitsPerSample   = 16
	wavHeaderSize      = 44
	wavSubchunkSize    = 16
	wavAudioFormat     = 1
	wavChunkSizeOffset = 36
)

// StubSynthesizer returns silent WAV audio sized to the text. It stands in
// when no speech backend is configured.
type StubSynthesizer struct {
	syllablesPerMinute float64
}

func NewStubSynthesizer(syllablesPerMinute float64) *StubSynthesizer {
	if syllablesPerMinute <= 0 {
		syllablesPerMinute = DefaultSyllablesPerMinute
	}
	return &StubSynthesizer{syllablesPerMinute: syllablesPerMinute}
}

func (s *StubSynthesizer) Name() string {
	return "stub"
}

func (s *StubSynthesizer) ContentType() string {
	return "audio/wav"
}

func (s *StubSynthesizer) Synthesize(ctx context.Context, text string, _ Voice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return generateSilentWAV(s.estimateDuration(text)), nil
}

// estimateDuration counts each Hanzi and each space-separated Pinyin word as
// one syllable.
func (s *StubSynthesizer) estimateDuration(text string) float64 {
	syllables := 0
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(word) > 1 && word[0] > 0x7F {
			syllables += utf8.RuneCountInString(word)
			continue
		}
		syllables++
	}
	return float64(syllables) * 60.0 / s.syllablesPerMinute
}

func generateSilentWAV(durationSec float64) []byte {
	bytesPerSample := wavBitsPerSample / 8
	numSamples := int(durationSec * float64(wavSampleRate))
	dataSize := numSamples * wavNumChannels * bytesPerSample
	byteRate := wavSampleRate * wavNumChannels * bytesPerSample
	blockAlign := wavNumChannels * bytesPerSample

	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wavChunkSizeOffset+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], wavSubchunkSize)
	binary.LittleEndian.PutUint16(buf[20:22], wavAudioFormat)
	binary.LittleEndian.PutUint16(buf[22:24], wavNumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], wavSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], wavBitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	return buf
}
