package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSentimentShift(t *testing.T) {
	msg := FormatSentimentShift(SentimentShift{
		CompanyName:   "Acme",
		Previous:      0.4,
		Current:       -0.1,
		PreviousLabel: "Positive",
		CurrentLabel:  "Negative",
		Followers:     3,
	})

	assert.True(t, strings.HasPrefix(msg, "📉 *Acme*"))
	assert.Contains(t, msg, "Positive (0.40)")
	assert.Contains(t, msg, "Negative (-0.10)")
	assert.Contains(t, msg, "*Followers notified:* 3")
}

func TestFormatSentimentShifts_SplitsLongDigests(t *testing.T) {
	shifts := make([]SentimentShift, 200)
	for i := range shifts {
		shifts[i] = SentimentShift{CompanyName: strings.Repeat("x", 20), CurrentLabel: "Neutral", PreviousLabel: "Neutral"}
	}

	messages := FormatSentimentShifts(shifts)
	assert.Greater(t, len(messages), 1)
	for _, m := range messages {
		assert.LessOrEqual(t, len(m), maxMessageLen)
	}
	assert.Contains(t, messages[1], "Part 2")
}

func TestFormatSentimentShifts_Empty(t *testing.T) {
	assert.Equal(t, []string{"No sentiment changes."}, FormatSentimentShifts(nil))
}
