package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

type testChunk struct {
	id   string
	size uint32
	data []byte
}

type chunkSpec struct {
	id      string
	payload []byte
}

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidRiffWaveHdr   = errors.New("invalid riff/wave header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// buildWave assembles a synthetic in-memory container from the passed
// chunks, fixing up the outer RIFF size afterwards.
func buildWave(t *testing.T, chunks ...chunkSpec) []byte {
	t.Helper()

	var b bytes.Buffer
	b.WriteString("RIFF")

	if err := binary.Write(&b, binary.LittleEndian, uint32(0)); err != nil {
		t.Fatalf("write riff size placeholder: %v", err)
	}

	b.WriteString("WAVE")

	for _, chunk := range chunks {
		writeTestChunk(t, &b, chunk.id, chunk.payload)
	}

	out := b.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return out
}

func writeTestChunk(t *testing.T, b *bytes.Buffer, id string, payload []byte) {
	t.Helper()

	if len(id) != 4 {
		t.Fatalf("chunk id must be 4 bytes, got %q", id)
	}

	b.WriteString(id)

	if err := binary.Write(b, binary.LittleEndian, uint32(len(payload))); err != nil {
		t.Fatalf("write chunk size for %q: %v", id, err)
	}

	if _, err := b.Write(payload); err != nil {
		t.Fatalf("write chunk payload for %q: %v", id, err)
	}

	if len(payload)%2 == 1 {
		if err := b.WriteByte(0); err != nil {
			t.Fatalf("write chunk pad for %q: %v", id, err)
		}
	}
}

func fmtChunkPayload(tag, channels uint16, sampleRate uint32, bitsPerSample uint16) []byte {
	blockAlign := channels * ((bitsPerSample + 7) / 8)

	payload := make([]byte, 16)
	binary.LittleEndian.PutUint16(payload[0:2], tag)
	binary.LittleEndian.PutUint16(payload[2:4], channels)
	binary.LittleEndian.PutUint32(payload[4:8], sampleRate)
	binary.LittleEndian.PutUint32(payload[8:12], sampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(payload[12:14], blockAlign)
	binary.LittleEndian.PutUint16(payload[14:16], bitsPerSample)

	return payload
}

// tonePCM16 repeats the 16-bit pattern {0, 0.5, 0, -0.5}.
func tonePCM16(repeats int) []byte {
	cycle := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0xC0}

	out := make([]byte, 0, len(cycle)*repeats)
	for range repeats {
		out = append(out, cycle...)
	}

	return out
}

// tonePattern repeats the normalized sample pattern {0, 0.5, 0, -0.5}.
func tonePattern(repeats int) []float64 {
	out := make([]float64, 0, 4*repeats)
	for range repeats {
		out = append(out, 0, 0.5, 0, -0.5)
	}

	return out
}

func parseWavChunks(data []byte) ([]testChunk, error) {
	if len(data) < 12 {
		return nil, errFileTooSmall
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errInvalidRiffWaveHdr
	}

	chunks := make([]testChunk, 0)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		end := offset + int(size)
		if end > len(data) {
			return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
		}

		payload := append([]byte(nil), data[offset:end]...)
		chunks = append(chunks, testChunk{id: id, size: size, data: payload})

		offset = end
		if size%2 == 1 {
			offset++
		}
	}

	return chunks, nil
}

func findChunk(chunks []testChunk, id string) (*testChunk, int) {
	for i := range chunks {
		if chunks[i].id == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}
