package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factoryqa-data/internal/auth"
)

var testNow = time.Date(2026, 1, 5, 8, 30, 0, 0, time.UTC)

func TestSignOff(t *testing.T) {
	reg := auth.NewRegistry()
	state := NewState()

	require.NoError(t, SignOff(state, 0, "1204", reg, testNow))
	require.NotNil(t, state.SignOffRecords[0])
	assert.Equal(t, "1204", state.SignOffPins[0])
	assert.Equal(t, "Jonathan Tagasa", state.SignOffRecords[0].Signatory.Name)
	assert.Equal(t, "2026-01-05T08:30:00Z", state.SignOffRecords[0].Timestamp)
}

func TestSignOff_UnknownPin(t *testing.T) {
	reg := auth.NewRegistry()
	state := NewState()

	err := SignOff(state, 0, "0000", reg, testNow)
	assert.ErrorIs(t, err, ErrPinNotRecognized)
	assert.Nil(t, state.SignOffRecords[0])
}

func TestSignOff_StepOutOfRange(t *testing.T) {
	reg := auth.NewRegistry()
	assert.Error(t, SignOff(NewState(), StepCount, "1204", reg, testNow))
	assert.Error(t, SignOff(NewState(), -1, "1204", reg, testNow))
}

func TestSignOff_FinalStepRoleGate(t *testing.T) {
	reg := auth.NewRegistry()

	// Production Staff 不在末步白名单内，待签记录被清掉
	state := NewState()
	err := SignOff(state, StepCount-1, "4521", reg, testNow)
	assert.ErrorIs(t, err, ErrRoleNotPermitted)
	assert.Nil(t, state.SignOffRecords[StepCount-1])
	assert.Empty(t, state.SignOffPins[StepCount-1])

	// Shift Leader 与 Production Manager 允许
	require.NoError(t, SignOff(NewState(), StepCount-1, "1204", reg, testNow))
	require.NoError(t, SignOff(NewState(), StepCount-1, "9033", reg, testNow))

	// 同一 Production Staff 在中间步骤不受限
	require.NoError(t, SignOff(NewState(), 2, "4521", reg, testNow))
}

func TestAdvance_RequiresSignOff(t *testing.T) {
	state := NewState()

	err := Advance(state)
	assert.ErrorIs(t, err, ErrSignOffRequired)
	assert.Equal(t, 0, state.CurrentStep)
}

func TestAdvanceAndRetreat(t *testing.T) {
	reg := auth.NewRegistry()
	state := NewState()

	require.NoError(t, SignOff(state, 0, "1204", reg, testNow))
	require.NoError(t, Advance(state))
	assert.Equal(t, 1, state.CurrentStep)

	// 后退无需签核
	Retreat(state)
	assert.Equal(t, 0, state.CurrentStep)
	Retreat(state)
	assert.Equal(t, 0, state.CurrentStep)
}

func TestSubmit(t *testing.T) {
	reg := auth.NewRegistry()
	state := NewState()

	assert.ErrorIs(t, Submit(state), ErrSignOffRequired)

	require.NoError(t, SignOff(state, StepCount-1, "9033", reg, testNow))
	assert.NoError(t, Submit(state))
}

func TestFullWalkThroughAllSteps(t *testing.T) {
	reg := auth.NewRegistry()
	state := NewState()

	pins := []string{"1204", "4521", "7742", "4521", "1204", "9033"}
	for step, pin := range pins {
		require.Equal(t, step, state.CurrentStep)
		require.NoError(t, SignOff(state, step, pin, reg, testNow))
		if step < StepCount-1 {
			require.NoError(t, Advance(state))
		}
	}

	require.NoError(t, Submit(state))
	final := state.SignOffRecords[StepCount-1]
	require.NotNil(t, final)
	assert.Contains(t, FinalSignOffRoles, final.Signatory.Role)
}

func TestStateNormalize(t *testing.T) {
	state := &State{
		CurrentStep:    42,
		SignOffPins:    []string{"1204"},
		SignOffRecords: make([]*SignOffRecord, 9),
		Photos:         [][]string{{"p"}},
	}
	state.Normalize()

	assert.Equal(t, StepCount-1, state.CurrentStep)
	assert.Len(t, state.SignOffPins, StepCount)
	assert.Len(t, state.SignOffRecords, StepCount)
	assert.Len(t, state.Photos, StepCount)
	assert.Equal(t, []string{"p"}, state.Photos[0])
	assert.NotNil(t, state.Photos[5])
	assert.NotNil(t, state.Responses)

	negative := &State{CurrentStep: -3}
	negative.Normalize()
	assert.Equal(t, 0, negative.CurrentStep)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, NewState().IsBlank())

	withResponse := NewState()
	withResponse.Responses["x"] = StringValue("yes")
	assert.False(t, withResponse.IsBlank())

	// 空字符串回答仍视为空白
	withEmpty := NewState()
	withEmpty.Responses["x"] = StringValue("")
	assert.True(t, withEmpty.IsBlank())

	withPhoto := NewState()
	withPhoto.Photos[2] = []string{"data:image/png;base64,AAA"}
	assert.False(t, withPhoto.IsBlank())
}

func TestSessionID(t *testing.T) {
	assert.Equal(t, "p1::EW_0::001::EW_I1E1", SessionID("p1", "EW_0", "001", "ew_i1e1"))
	assert.Equal(t, "p1::EW_0::001::DEFAULT", SessionID("p1", "EW_0", "001", ""))
	assert.Equal(t, "p1::EW_0::001::DEFAULT", SessionID("p1", "EW_0", "001", "   "))
}

func TestLookupTemplate(t *testing.T) {
	assert.Equal(t, "EW_I1E1", LookupTemplate("ew_i1e1").ID)
	assert.Equal(t, DefaultTemplateID, LookupTemplate("").ID)
	assert.Equal(t, DefaultTemplateID, LookupTemplate("MF_UNKNOWN").ID)
}
