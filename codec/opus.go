// Package codec adapts encoded capture streams to the frames the voiceproc
// pipeline consumes. The only codec handled is Opus, decoded with the pure
// Go pion/opus decoder; hosts capturing raw PCM construct AudioFrames
// directly and skip this package.
package codec

import (
	"fmt"
	"time"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"

	voiceproc "github.com/opd-ai/voiceproc"
	"github.com/opd-ai/voiceproc/dsp"
)

// decodeBufSamples sizes the decode buffer: 40 ms at 48 kHz covers the
// frame durations voice encoders emit in practice.
const decodeBufSamples = 1920

// OpusIngest decodes Opus packets into normalized AudioFrames at a fixed
// session sample rate, resampling when the decoded bandwidth differs.
//
// One instance serves one stream: the decoder, the resampler, and the
// decode scratch carry state across packets and must not be shared.
type OpusIngest struct {
	decoder    opus.Decoder
	targetRate int

	resampler    *dsp.Resampler
	resamplerIn  int
	decodeBuf    []byte
	floatBuf     []float64
	packetsCount uint64
}

// NewOpusIngest creates an ingest adapter emitting frames at targetRate Hz.
//
// Parameters:
//   - targetRate: the pipeline session's sample rate (must be positive)
//
// Returns:
//   - *OpusIngest: ready-to-use adapter
//   - error: if targetRate is not positive
func NewOpusIngest(targetRate int) (*OpusIngest, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive, got %d", targetRate)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewOpusIngest",
		"target_rate": targetRate,
	}).Info("Created Opus ingest adapter")

	return &OpusIngest{
		decoder:    opus.NewDecoder(),
		targetRate: targetRate,
		decodeBuf:  make([]byte, decodeBufSamples*2*2),
		floatBuf:   make([]float64, 0, decodeBufSamples*2),
	}, nil
}

// DecodePacket decodes one Opus packet into an AudioFrame at the target
// rate, stamped with the given capture timestamp. Stereo packets are
// downmixed to mono by channel averaging.
//
// Returns an error for empty or undecodable packets; decode failures do
// not invalidate the adapter, the next packet is decoded independently.
func (o *OpusIngest) DecodePacket(data []byte, timestamp time.Time) (*voiceproc.AudioFrame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty opus packet")
	}

	bandwidth, isStereo, err := o.decoder.Decode(data, o.decodeBuf)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "OpusIngest.DecodePacket",
			"packet_size": len(data),
			"error":       err.Error(),
		}).Error("Opus decode failed")
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}
	o.packetsCount++

	decodedRate := int(bandwidth.SampleRate())
	pcm := dsp.BytesToInt16(o.decodeBuf)

	o.floatBuf = o.floatBuf[:0]
	o.floatBuf = dsp.Int16ToFloat64(o.floatBuf, pcm)
	samples := o.floatBuf
	if isStereo {
		samples = downmixStereo(samples)
	}

	if decodedRate != o.targetRate {
		samples, err = o.resample(samples, decodedRate)
		if err != nil {
			return nil, err
		}
	}

	out := make([]float64, len(samples))
	copy(out, samples)

	logrus.WithFields(logrus.Fields{
		"function":     "OpusIngest.DecodePacket",
		"packet_size":  len(data),
		"decoded_rate": decodedRate,
		"is_stereo":    isStereo,
		"samples":      len(out),
	}).Debug("Decoded Opus packet")

	return voiceproc.NewAudioFrame(out, o.targetRate, timestamp), nil
}

// resample brings decoded samples to the target rate, rebuilding the
// resampler when the decoded bandwidth changes between packets.
func (o *OpusIngest) resample(samples []float64, decodedRate int) ([]float64, error) {
	if o.resampler == nil || o.resamplerIn != decodedRate {
		r, err := dsp.NewResampler(decodedRate, o.targetRate)
		if err != nil {
			return nil, fmt.Errorf("resampler for decoded rate %d: %w", decodedRate, err)
		}
		o.resampler = r
		o.resamplerIn = decodedRate
	}
	return o.resampler.Resample(nil, samples), nil
}

// downmixStereo averages interleaved stereo pairs into mono in place,
// returning the shortened slice.
func downmixStereo(samples []float64) []float64 {
	mono := len(samples) / 2
	for i := 0; i < mono; i++ {
		samples[i] = 0.5 * (samples[i*2] + samples[i*2+1])
	}
	return samples[:mono]
}

// PacketsDecoded returns how many packets have decoded successfully.
func (o *OpusIngest) PacketsDecoded() uint64 { return o.packetsCount }
