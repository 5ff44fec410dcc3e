package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		count     int
		wantLevel int
		wantExp   int
	}{
		{0, 1, 0},
		{3, 1, 30},
		{10, 2, 0},
		{27, 3, 70},
	}
	for _, tt := range tests {
		st := Summarize(language.French, 4, 2.5, tt.count)
		assert.Equal(t, tt.wantLevel, st.Level, "count %d", tt.count)
		assert.Equal(t, tt.wantExp, st.Exp, "count %d", tt.count)
		assert.Equal(t, 4, st.LearningDays)
		assert.Equal(t, 2.5, st.AverageWords)
	}
}

func TestTurnOutcomeErr(t *testing.T) {
	assert.NoError(t, TurnOutcome{}.Err())

	msgErr := errors.New("message down")
	histErr := errors.New("history down")
	err := TurnOutcome{MessageErr: msgErr, HistoryErr: histErr}.Err()
	assert.ErrorIs(t, err, msgErr)
	assert.ErrorIs(t, err, histErr)
}
