package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/nutrify/internal/assessment"
)

func profilePhase() assessment.Phase {
	return assessment.Phase{
		Title: "Profile",
		Questions: []assessment.Question{
			{ID: "age", Type: assessment.TypeNumber, Required: true},
			{
				ID: "goal", Type: assessment.TypeSingleSelect, Required: true,
				Options: []assessment.Option{{Value: "loss"}, {Value: "gain"}, {Value: "maintain"}},
			},
		},
	}
}

func fieldErrors(t *testing.T, err error) *Error {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validate.Error, got %v", err)
	return verr
}

func TestPhaseNegativeAgeFails(t *testing.T) {
	_, err := Phase(profilePhase(), map[string]any{"age": -1.0, "goal": "loss"})
	verr := fieldErrors(t, err)
	assert.Equal(t, []string{"age"}, verr.Keys())
	assert.Equal(t, "must be at least 0", verr.Field("age"))
}

func TestPhaseValidAnswers(t *testing.T) {
	got, err := Phase(profilePhase(), map[string]any{"age": "30", "goal": "loss"})
	require.NoError(t, err)
	assert.Equal(t, assessment.Responses{"age": 30.0, "goal": "loss"}, got)
}

func TestPhaseRejectsUnknownOption(t *testing.T) {
	_, err := Phase(profilePhase(), map[string]any{"age": 30, "goal": "bulk"})
	verr := fieldErrors(t, err)
	assert.Equal(t, []string{"goal"}, verr.Keys())
	assert.Contains(t, verr.Field("goal"), "loss, gain, maintain")
}

func TestPhaseMissingRequiredKeyedByID(t *testing.T) {
	_, err := Phase(profilePhase(), map[string]any{"goal": "gain"})
	verr := fieldErrors(t, err)
	assert.Equal(t, "is required", verr.Field("age"))

	_, err = Phase(profilePhase(), map[string]any{"age": "   ", "goal": ""})
	verr = fieldErrors(t, err)
	assert.Equal(t, []string{"age", "goal"}, verr.Keys())
}

func TestPhaseNonNumericInput(t *testing.T) {
	_, err := Phase(profilePhase(), map[string]any{"age": "thirty", "goal": "loss"})
	verr := fieldErrors(t, err)
	assert.Equal(t, "must be a number", verr.Field("age"))
}

func TestPhaseNonFiniteNumbers(t *testing.T) {
	for _, in := range []any{"NaN", "Inf", "-Inf", "infinity", math.NaN(), math.Inf(1)} {
		_, err := Phase(profilePhase(), map[string]any{"age": in, "goal": "loss"})
		verr := fieldErrors(t, err)
		assert.Equal(t, []string{"age"}, verr.Keys(), "input %v", in)
		assert.Equal(t, "must be a number", verr.Field("age"))

		assert.Equal(t, assessment.Responses{"goal": "loss"},
			Partial(profilePhase(), map[string]any{"age": in, "goal": "loss"}))
	}
}

func TestPhaseIgnoresOtherPhases(t *testing.T) {
	got, err := Phase(profilePhase(), map[string]any{
		"age":       41,
		"goal":      "maintain",
		"height_cm": "not validated here",
	})
	require.NoError(t, err)
	assert.NotContains(t, got, "height_cm")
}

func TestPhaseExplicitRange(t *testing.T) {
	phase := assessment.Phase{
		Title: "Body",
		Questions: []assessment.Question{
			{ID: "height_cm", Type: assessment.TypeNumber, Required: true, Validation: "min:50,max:250"},
			{ID: "resting_heart_rate", Type: assessment.TypeNumber, Validation: "min:30"},
		},
	}

	tests := []struct {
		name  string
		input map[string]any
		field string
		msg   string
	}{
		{"below min", map[string]any{"height_cm": 10}, "height_cm", "must be at least 50"},
		{"above max", map[string]any{"height_cm": 300}, "height_cm", "must be at most 250"},
		{"optional below min", map[string]any{"height_cm": 180, "resting_heart_rate": "12"}, "resting_heart_rate", "must be at least 30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Phase(phase, tt.input)
			verr := fieldErrors(t, err)
			assert.Equal(t, tt.msg, verr.Field(tt.field))
		})
	}

	got, err := Phase(phase, map[string]any{"height_cm": 180})
	require.NoError(t, err)
	assert.Equal(t, assessment.Responses{"height_cm": 180.0}, got)
}

func TestPhaseMultiSelect(t *testing.T) {
	opts := []assessment.Option{{Value: "vegan"}, {Value: "keto"}, {Value: "halal"}}
	phase := assessment.Phase{
		Title: "Food",
		Questions: []assessment.Question{
			{ID: "training", Type: assessment.TypeMultiSelect, Required: true, Options: opts},
			{ID: "prefs", Type: assessment.TypeMultiSelect, Options: opts},
		},
	}

	_, err := Phase(phase, map[string]any{})
	verr := fieldErrors(t, err)
	assert.Equal(t, []string{"training"}, verr.Keys())
	assert.Equal(t, "select at least one option", verr.Field("training"))

	got, err := Phase(phase, map[string]any{"training": "vegan, keto, vegan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan", "keto"}, got["training"])
	assert.Equal(t, []string{}, got["prefs"])

	_, err = Phase(phase, map[string]any{"training": []any{"vegan", "paleo"}})
	verr = fieldErrors(t, err)
	assert.Contains(t, verr.Field("training"), "must be one of")
}

func TestPhaseTextLength(t *testing.T) {
	phase := assessment.Phase{
		Title: "Notes",
		Questions: []assessment.Question{
			{ID: "notes", Type: assessment.TypeText, Validation: "maxlen:5"},
			{ID: "name", Type: assessment.TypeText, Required: true},
		},
	}

	_, err := Phase(phase, map[string]any{"notes": "too long", "name": "Ana"})
	verr := fieldErrors(t, err)
	assert.Equal(t, "must be at most 5 characters", verr.Field("notes"))

	got, err := Phase(phase, map[string]any{"name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, assessment.Responses{"name": "Ana"}, got)
}

func TestPartialKeepsWhatCoerces(t *testing.T) {
	got := Partial(profilePhase(), map[string]any{"age": "abc", "goal": "gain"})
	assert.Equal(t, assessment.Responses{"goal": "gain"}, got)

	got = Partial(profilePhase(), map[string]any{"age": "-4"})
	assert.Equal(t, assessment.Responses{"age": -4.0}, got)
}

func TestSchemaHasOnlyPhaseQuestions(t *testing.T) {
	s := Schema(profilePhase())
	props := s["properties"].(map[string]any)
	assert.Len(t, props, 2)
	assert.ElementsMatch(t, []any{"age", "goal"}, s["required"])

	age := props["age"].(map[string]any)
	assert.Equal(t, 0.0, age["minimum"])
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Fields: map[string]string{"goal": "is required", "age": "must be a number"}}
	assert.Equal(t, "validation failed: age: must be a number; goal: is required", err.Error())
}
