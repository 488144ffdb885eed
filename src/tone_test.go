package cwkey

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_toneGen_Silent(t *testing.T) {
	var g = newToneGen(MORSE_TONE, DEFAULT_SAMPLES_PER_SEC, 100)
	var out = []float32{1, 2, 3, 4}

	g.fill(out)

	assert.Equal(t, []float32{0, 0, 0, 0}, out)
	assert.Equal(t, uint32(0), g.phase)
}

func Test_toneGen_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var freq = rapid.IntRange(100, 3000).Draw(t, "freq")
		var amp = rapid.IntRange(0, 100).Draw(t, "amp")
		var level = rapid.Uint8().Draw(t, "level")

		var g = newToneGen(freq, DEFAULT_SAMPLES_PER_SEC, amp)
		g.setLevel(level)

		var out = make([]float32, 512)
		g.fill(out)

		var limit = float32(amp)/100.0*float32(level)/255.0 + 1e-6
		for _, v := range out {
			assert.LessOrEqual(t, v, limit)
			assert.GreaterOrEqual(t, v, -limit)
		}
	})
}

func Test_toneGen_Restarts_Phase(t *testing.T) {
	var g = newToneGen(MORSE_TONE, DEFAULT_SAMPLES_PER_SEC, 100)
	g.setLevel(255)

	var first = make([]float32, 64)
	g.fill(first)
	assert.NotZero(t, g.phase)

	g.setLevel(0)
	g.fill(make([]float32, 64))

	g.setLevel(255)
	var second = make([]float32, 64)
	g.fill(second)

	assert.Equal(t, first, second, "each tone starts from the same phase")
}

func Test_toneGen_Frequency(t *testing.T) {
	// 1 kHz at 8000 samples/sec is one cycle every 8 samples.
	var g = newToneGen(1000, 8000, 100)
	g.setLevel(255)

	var out = make([]float32, 16)
	g.fill(out)

	assert.InDelta(t, out[0], out[8], 1e-6)
	assert.InDelta(t, 1.0, out[1], 1e-6, "peak on the second sample")
}

func TestGPIODTone(t *testing.T) {
	var mock = new(mockGPIODLine)
	var g = &GPIODTone{line: mock, invert: false}

	require.NoError(t, g.SetTone(1))
	assert.Equal(t, 1, mock.value)

	require.NoError(t, g.SetTone(0))
	assert.Equal(t, 0, mock.value)

	g.invert = true
	require.NoError(t, g.SetTone(255))
	assert.Equal(t, 0, mock.value)

	require.NoError(t, g.Close())
	assert.Equal(t, 1, mock.value, "inverted idle is high")
	assert.True(t, mock.closed)
}

func TestOpenTone_None(t *testing.T) {
	var buf bytes.Buffer
	var logger = NewLogger(&buf, "info")

	var out, closer, err = OpenTone(ToneConfig{Method: TONE_METHOD_NONE}, logger) //nolint:exhaustruct
	require.NoError(t, err)
	assert.Nil(t, closer)

	require.NoError(t, out.SetTone(127))
	assert.Contains(t, buf.String(), "level=127")
}

func TestOpenTone_Unknown(t *testing.T) {
	var _, _, err = OpenTone(ToneConfig{Method: "theremin"}, nil) //nolint:exhaustruct

	assert.ErrorIs(t, err, ErrUnknownToneMethod)
}
