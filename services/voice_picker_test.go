package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickCoachVoiceDeterministic(t *testing.T) {
	first := PickCoachVoice("user-123", "technical")
	second := PickCoachVoice("user-123", "technical")
	assert.Equal(t, first, second, "same user and type must map to the same voice")
}

func TestPickCoachVoiceFromTypePool(t *testing.T) {
	for interviewType, pool := range voicePools {
		voice := PickCoachVoice("user-123", interviewType)
		assert.Contains(t, pool, voice, "voice for %s must come from its pool", interviewType)
	}
}

func TestPickCoachVoiceUnknownTypeFallsBack(t *testing.T) {
	assert.Equal(t, fallbackVoice, PickCoachVoice("user-123", "underwater_basket_weaving"))
}

func TestPickCoachVoiceCaseInsensitive(t *testing.T) {
	assert.Equal(t, PickCoachVoice("USER-123", "TECHNICAL"), PickCoachVoice("user-123", "technical"))
}
