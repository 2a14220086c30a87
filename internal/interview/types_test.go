package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"Technical":            ModeTechnical,
		"technical interview":  ModeTechnical,
		"Behavioral Interview": ModeBehavioral,
		" behavioural ":        ModeBehavioral,
	} {
		got, err := ParseMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseMode("system design")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseQuestionSetAndDifficulty(t *testing.T) {
	set, err := ParseQuestionSet("faang-style")
	require.NoError(t, err)
	assert.Equal(t, SetFAANG, set)

	set, err = ParseQuestionSet("")
	require.NoError(t, err)
	assert.Equal(t, SetStandard, set)

	set, err = ParseQuestionSet("STAR")
	require.NoError(t, err)
	assert.Equal(t, SetSTAR, set)

	_, err = ParseQuestionSet("leetcode")
	assert.Error(t, err)

	d, err := ParseDifficulty("HARD")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("impossible")
	assert.Error(t, err)
}

func TestSettings_NormalizeAndValidate(t *testing.T) {
	s := Settings{UserID: " alice ", Role: "  Engineer ", Mode: "technical interview", QuestionSet: "star-based"}
	s.Normalize()

	assert.Equal(t, "alice", s.UserID)
	assert.Equal(t, "Engineer", s.Role)
	assert.Equal(t, ModeTechnical, s.Mode)
	assert.Equal(t, SetSTAR, s.QuestionSet)
	assert.Equal(t, DifficultyMedium, s.Difficulty)
	assert.Equal(t, DefaultQuestionCount, s.Count)
	assert.NoError(t, s.Validate())

	s.Count = 0
	err := s.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "count", verr.Field)
	assert.Equal(t, "must be at least 1", verr.Message)
}

func TestModeKind(t *testing.T) {
	assert.Equal(t, "technical", ModeTechnical.Kind())
	assert.Equal(t, "behavioral", ModeBehavioral.Kind())
}
