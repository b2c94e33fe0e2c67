// Package audiophile reads, writes and windows audio signals.
//
// Signals move through the package as interleaved float64 buffers scaled
// to [-1.0, 1.0). The wave subpackage handles PCM wave files natively
// with sample-accurate random access; every other format is routed
// through an external converter (SoX or FFmpeg, probed with
// FindConverter) into a scratch wave file, so callers read and write any
// format the collaborator understands through one API.
//
// The FramedReader slides a fixed-shape analysis window across a file:
// frames are always framesize rows by channels columns, zero-padded
// where they hang off either end of the signal. Frame spacing comes from
// a Window, whose stride rule can be set as a framerate, a stride in
// samples, an overlap fraction or an explicit list of time points.
//
// Read and Write cover the whole-file cases in one call.
package audiophile
