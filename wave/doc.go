// Package wave reads and writes uncompressed PCM audio in WAVE containers.
//
// The Decoder gives sample accurate random access to the data chunk: the
// header scan commits the stream parameters once, and frame reads address
// any region of the data by index. The Encoder writes a canonical 44 byte
// header with placeholder sizes that Close patches from running totals, so
// streams can be written without knowing their length in advance.
//
// Sample values cross the API as normalized float64 in [-1.0, 1.0),
// carried in audio.FloatBuffer with interleaved channels. All container
// fields and samples are stored little-endian regardless of platform.
//
// Only linear PCM (format tag 1) is handled here; containers holding any
// other compression scheme are rejected at open. Unknown chunks are
// inventoried and skipped without interpretation.
package wave
