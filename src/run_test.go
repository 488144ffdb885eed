package cwkey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Run_Finishes(t *testing.T) {
	var clock = SystemClock{}
	var rec = &recorder{clock: &fakeClock{}} //nolint:exhaustruct
	var e = NewEngine(rec, nil, clock, WithLogger(quietLogger()))
	e.SetDitLength(2)

	require.True(t, e.AcceptMessage("EE", false))

	var ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, Run(ctx, e, time.Millisecond))

	assert.True(t, e.IsDone())
	assert.Len(t, rec.only("tone"), 4)
}

func Test_Run_Cancelled(t *testing.T) {
	var clock = SystemClock{}
	var rec = &recorder{clock: &fakeClock{}} //nolint:exhaustruct
	var e = NewEngine(rec, rec, clock, WithLogger(quietLogger()))
	e.Configure(1000, 0, false)

	require.True(t, e.AcceptMessage("TTT", false))

	var ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, Run(ctx, e, 0), context.DeadlineExceeded)

	assert.True(t, e.IsDone())
	var ptt = rec.only("ptt")
	assert.Equal(t, 0, ptt[len(ptt)-1].value, "PTT released")
	var tones = rec.only("tone")
	assert.Equal(t, 0, tones[len(tones)-1].value, "tone released")
}

func Test_SystemClock(t *testing.T) {
	var clock = SystemClock{}

	var a = clock.Millis()
	time.Sleep(20 * time.Millisecond)
	var b = clock.Millis()

	assert.GreaterOrEqual(t, b-a, uint32(20))
	assert.Less(t, b-a, uint32(2000))
}
