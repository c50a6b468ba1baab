package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prepdeck/models"
)

func TestStripCodeFences(t *testing.T) {
	plain := `{"summary":"ok"}`

	assert.Equal(t, plain, stripCodeFences(plain))
	assert.Equal(t, plain, stripCodeFences("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("```\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("  "+plain+"  "))
}

func TestBuildTurnContentsSkipsEmptyAndBounds(t *testing.T) {
	c := &CoachAIService{}

	var turns []models.SessionTurn
	for i := 0; i < 15; i++ {
		turns = append(turns, models.SessionTurn{Speaker: models.SpeakerCandidate, Content: "answer"})
	}
	turns = append(turns, models.SessionTurn{Speaker: models.SpeakerCoach, Content: "   "})

	contents := c.buildTurnContents(turns)

	// Last 10 turns, minus the blank one.
	assert.Len(t, contents, 9)
}
