package dsp

// PCM format conversion between the int16 little-endian representation used
// by codecs and the normalized float64 samples the pipeline operates on.

const pcmScale = 32768.0

// Int16ToFloat64 converts int16 PCM samples to normalized float64 in
// [-1, 1), appending to dst and returning the extended slice.
func Int16ToFloat64(dst []float64, src []int16) []float64 {
	for _, s := range src {
		dst = append(dst, float64(s)/pcmScale)
	}
	return dst
}

// Float64ToInt16 converts normalized float64 samples to int16 PCM with
// clipping protection, appending to dst and returning the extended slice.
func Float64ToInt16(dst []int16, src []float64) []int16 {
	for _, s := range src {
		v := s * pcmScale
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		dst = append(dst, int16(v))
	}
	return dst
}

// BytesToInt16 reinterprets little-endian PCM bytes as int16 samples. A
// trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// Int16ToBytes serializes int16 samples as little-endian PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}
