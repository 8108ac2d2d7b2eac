package assets

import (
	"encoding/binary"
	"math"
	"math/rand"
)

// PCM produced here is 16-bit little-endian stereo.
const (
	channels      = 2
	bytesPerFrame = 2 * channels
)

// frames returns the frame count for seconds of audio, at least 1.
func frames(sampleRate int, seconds float64) int {
	n := int(float64(sampleRate) * seconds)
	if n < 1 {
		n = 1
	}
	return n
}

func putFrame(buf []byte, i int, v float64) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	s := uint16(int16(v * math.MaxInt16))
	binary.LittleEndian.PutUint16(buf[i*bytesPerFrame:], s)
	binary.LittleEndian.PutUint16(buf[i*bytesPerFrame+2:], s)
}

// Hiss is band-limited noise for the lit fuse loop. The first and last
// frames are faded so the loop point does not click.
func Hiss(sampleRate int, seconds float64, seed int64) []byte {
	n := frames(sampleRate, seconds)
	buf := make([]byte, n*bytesPerFrame)
	rng := rand.New(rand.NewSource(seed))
	fade := n / 50

	var prev float64
	for i := 0; i < n; i++ {
		// one-pole high pass keeps it crackly
		white := rng.Float64()*2 - 1
		v := white - 0.85*prev
		prev = white

		gain := 0.5
		if fade > 0 {
			if i < fade {
				gain *= float64(i) / float64(fade)
			} else if i >= n-fade {
				gain *= float64(n-1-i) / float64(fade)
			}
		}
		putFrame(buf, i, v*gain)
	}
	return buf
}

// Boom is a falling sine thump mixed with decaying noise.
func Boom(sampleRate int, seconds float64, seed int64) []byte {
	n := frames(sampleRate, seconds)
	buf := make([]byte, n*bytesPerFrame)
	rng := rand.New(rand.NewSource(seed))

	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		freq := 90 - 60*t
		phase += 2 * math.Pi * freq / float64(sampleRate)
		env := math.Exp(-5 * t)
		v := 0.7*math.Sin(phase) + 0.4*(rng.Float64()*2-1)*math.Exp(-9*t)
		putFrame(buf, i, v*env)
	}
	return buf
}

// Blip is a short sine tone with a linear decay.
func Blip(sampleRate int, seconds, freq float64) []byte {
	n := frames(sampleRate, seconds)
	buf := make([]byte, n*bytesPerFrame)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		env := 1 - float64(i)/float64(n)
		putFrame(buf, i, 0.5*env*math.Sin(2*math.Pi*freq*t))
	}
	return buf
}

// EncodeWAV wraps PCM in a canonical RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	out := make([]byte, 44+len(pcm))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*bytesPerFrame))
	binary.LittleEndian.PutUint16(out[32:], bytesPerFrame)
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}
