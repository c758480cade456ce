package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHelpersBeforeInit(t *testing.T) {
	// Must not panic while metrics are unregistered.
	if Transitions == nil {
		Transition("reset")
		Aborted("share", "destination")
		Reminder()
		IgnoredToken("unrecognized")
		SetLiveEvents(3)
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(Transitions.WithLabelValues("claim"))
	Transition("claim")
	assert.Equal(t, before+1, testutil.ToFloat64(Transitions.WithLabelValues("claim")))

	SetLiveEvents(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(LiveEvents))
}
