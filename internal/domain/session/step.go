// Package session holds the state of one wizard session: where the user is,
// what they chose, and the recipes generated so far.
package session

import (
	"errors"
	"fmt"
)

// ErrUnknownValue is wrapped by the Parse helpers
var ErrUnknownValue = errors.New("unknown value")

// Step is a node of the wizard state machine
type Step string

const (
	StepWelcome              Step = "welcome"
	StepModeSelection        Step = "mode_selection"
	StepIngredients          Step = "ingredients"
	StepSeasonalSelection    Step = "seasonal_selection"
	StepConvenienceSelection Step = "convenience_selection"
	StepCuisineSelection     Step = "cuisine_selection"
	StepSuggestions          Step = "suggestions"
	StepPreferences          Step = "preferences"
	StepEnvironment          Step = "environment"
	StepLoading              Step = "loading"
	StepResult               Step = "result"
	StepCommunity            Step = "community"
)

var steps = map[Step]struct{}{
	StepWelcome: {}, StepModeSelection: {}, StepIngredients: {}, StepSeasonalSelection: {},
	StepConvenienceSelection: {}, StepCuisineSelection: {}, StepSuggestions: {},
	StepPreferences: {}, StepEnvironment: {}, StepLoading: {}, StepResult: {}, StepCommunity: {},
}

// ParseStep validates a step name
func ParseStep(s string) (Step, error) {
	if _, ok := steps[Step(s)]; !ok {
		return "", fmt.Errorf("%w: step %q", ErrUnknownValue, s)
	}
	return Step(s), nil
}

// Transient reports steps that must never become a back-stack stop
func (s Step) Transient() bool {
	return s == StepLoading
}

// Tab is one of the two bottom navigation tabs
type Tab string

const (
	TabHome      Tab = "home"
	TabCommunity Tab = "community"
)

// ParseTab validates a tab name
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabHome, TabCommunity:
		return Tab(s), nil
	}
	return "", fmt.Errorf("%w: tab %q", ErrUnknownValue, s)
}

// NoRecipe marks an entry that does not show a history slot
const NoRecipe = -1

// NavigationEntry is one slot of the browser history stack
type NavigationEntry struct {
	Step Step `json:"step"`
	Tab  Tab  `json:"tab"`
	// RecipeIndex is the history slot shown by a Result entry, NoRecipe otherwise
	RecipeIndex int `json:"recipe_index"`
	// RecipeKey identifies the recipe in that slot, 0 when unknown
	RecipeKey uint64 `json:"recipe_key,omitempty"`
}

// Home is the entry used whenever there is nothing to restore
func Home() NavigationEntry {
	return NavigationEntry{Step: StepWelcome, Tab: TabHome, RecipeIndex: NoRecipe}
}

// Entry builds an entry without a recipe slot
func Entry(step Step, tab Tab) NavigationEntry {
	return NavigationEntry{Step: step, Tab: tab, RecipeIndex: NoRecipe}
}

// Mode is the recipe-generation strategy picked on the mode screen
type Mode string

const (
	ModeFridge      Mode = "fridge"
	ModeSeasonal    Mode = "seasonal"
	ModeConvenience Mode = "convenience"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFridge, ModeSeasonal, ModeConvenience:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: mode %q", ErrUnknownValue, s)
}

// Event is a "next" action raised by a wizard screen
type Event string

const (
	EventStart             Event = "start"
	EventChooseFridge      Event = "choose_fridge"
	EventChooseSeasonal    Event = "choose_seasonal"
	EventChooseConvenience Event = "choose_convenience"
	EventSubmit            Event = "submit"
	EventReset             Event = "reset"
)

// ParseEvent validates an event name
func ParseEvent(s string) (Event, error) {
	switch Event(s) {
	case EventStart, EventChooseFridge, EventChooseSeasonal, EventChooseConvenience, EventSubmit, EventReset:
		return Event(s), nil
	}
	return "", fmt.Errorf("%w: event %q", ErrUnknownValue, s)
}

// ModeFor returns the mode chosen by a mode-selection event
func (e Event) ModeFor() (Mode, bool) {
	switch e {
	case EventChooseFridge:
		return ModeFridge, true
	case EventChooseSeasonal:
		return ModeSeasonal, true
	case EventChooseConvenience:
		return ModeConvenience, true
	}
	return "", false
}

type transitionKey struct {
	from  Step
	event Event
}

var transitions = map[transitionKey]Step{
	{StepWelcome, EventStart}:                   StepModeSelection,
	{StepModeSelection, EventChooseFridge}:      StepIngredients,
	{StepModeSelection, EventChooseSeasonal}:    StepSeasonalSelection,
	{StepModeSelection, EventChooseConvenience}: StepConvenienceSelection,
	{StepIngredients, EventSubmit}:              StepCuisineSelection,
	{StepSeasonalSelection, EventSubmit}:        StepCuisineSelection,
	{StepCuisineSelection, EventSubmit}:         StepSuggestions,
	{StepSuggestions, EventSubmit}:              StepPreferences,
	{StepPreferences, EventSubmit}:              StepEnvironment,
}

// NextStep looks up the forward transition. Reset is accepted from anywhere.
func NextStep(from Step, event Event) (Step, bool) {
	if event == EventReset {
		return StepWelcome, true
	}
	to, ok := transitions[transitionKey{from, event}]
	return to, ok
}

// PreviousStep is the screen a "back" button returns to. The cuisine screen is shared by
// two branches, so its predecessor depends on the mode.
func PreviousStep(from Step, mode Mode) Step {
	switch from {
	case StepModeSelection:
		return StepWelcome
	case StepIngredients, StepSeasonalSelection, StepConvenienceSelection:
		return StepModeSelection
	case StepCuisineSelection:
		if mode == ModeFridge {
			return StepIngredients
		}
		return StepSeasonalSelection
	case StepSuggestions:
		return StepCuisineSelection
	case StepPreferences:
		return StepSuggestions
	case StepEnvironment:
		return StepPreferences
	}
	return StepWelcome
}
