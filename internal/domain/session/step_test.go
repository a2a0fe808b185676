package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStep(t *testing.T) {
	tests := []struct {
		from  Step
		event Event
		want  Step
		ok    bool
	}{
		{StepWelcome, EventStart, StepModeSelection, true},
		{StepModeSelection, EventChooseFridge, StepIngredients, true},
		{StepModeSelection, EventChooseSeasonal, StepSeasonalSelection, true},
		{StepModeSelection, EventChooseConvenience, StepConvenienceSelection, true},
		{StepIngredients, EventSubmit, StepCuisineSelection, true},
		{StepSeasonalSelection, EventSubmit, StepCuisineSelection, true},
		{StepPreferences, EventSubmit, StepEnvironment, true},
		{StepResult, EventReset, StepWelcome, true},
		{StepWelcome, EventSubmit, "", false},
		{StepEnvironment, EventSubmit, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, ok := NextStep(tt.from, tt.event)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPreviousStep_CuisineDependsOnMode(t *testing.T) {
	assert.Equal(t, StepIngredients, PreviousStep(StepCuisineSelection, ModeFridge))
	assert.Equal(t, StepSeasonalSelection, PreviousStep(StepCuisineSelection, ModeSeasonal))
	assert.Equal(t, StepModeSelection, PreviousStep(StepConvenienceSelection, ModeConvenience))
	assert.Equal(t, StepWelcome, PreviousStep(StepModeSelection, ModeFridge))
	assert.Equal(t, StepPreferences, PreviousStep(StepEnvironment, ModeFridge))
}

func TestParse(t *testing.T) {
	step, err := ParseStep("result")
	require.NoError(t, err)
	assert.Equal(t, StepResult, step)
	_, err = ParseStep("checkout")
	assert.ErrorIs(t, err, ErrUnknownValue)

	_, err = ParseTab("settings")
	assert.ErrorIs(t, err, ErrUnknownValue)
	_, err = ParseMode("oven")
	assert.ErrorIs(t, err, ErrUnknownValue)

	mode, ok := EventChooseSeasonal.ModeFor()
	assert.True(t, ok)
	assert.Equal(t, ModeSeasonal, mode)
	_, ok = EventSubmit.ModeFor()
	assert.False(t, ok)

	assert.True(t, StepLoading.Transient())
	assert.False(t, StepResult.Transient())
}

func TestUserChoices_Apply(t *testing.T) {
	c := DefaultChoices()
	mode := ModeSeasonal
	ingredients := "두부, 김치"
	c.Apply(ChoicesPatch{
		Mode:        &mode,
		Ingredients: &ingredients,
		ToggleSauce: []string{"고추장", "간장"},
		ToggleItem:  []string{"김치", "대파"},
		ToggleTool:  []string{"에어프라이어"},
	})

	assert.Equal(t, ModeSeasonal, c.Mode)
	assert.Equal(t, []string{"두부", "대파"}, c.IngredientList())
	assert.True(t, c.HasSauce("간장"))
	assert.Equal(t, []string{"에어프라이어"}, c.Tools)

	c.Apply(ChoicesPatch{ToggleSauce: []string{"간장"}})
	assert.False(t, c.HasSauce("간장"))
	assert.True(t, c.HasSauce("고추장"))

	clone := c.Clone()
	clone.ToggleTool("오븐")
	assert.Len(t, c.Tools, 1, "clone must not share the tool slice")
}
