package pkg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRoundTripsThroughDatabaseForm(t *testing.T) {
	for s := StepNone; s <= StepDone; s++ {
		v, err := s.Value()
		require.NoError(t, err)

		var got Step
		require.NoError(t, got.Scan(v))
		assert.Equal(t, s, got, s.String())
	}
}

func TestStepValue(t *testing.T) {
	v, err := StepNone.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = StepConsent.Value()
	require.NoError(t, err)
	assert.Equal(t, "consent", v)

	_, err = Step(42).Value()
	assert.Error(t, err)
}

func TestStepScan(t *testing.T) {
	var s Step
	require.NoError(t, s.Scan([]byte("gender")))
	assert.Equal(t, StepGender, s)

	require.NoError(t, s.Scan(""))
	assert.Equal(t, StepNone, s)

	assert.Error(t, s.Scan("onboarding"))
	assert.Error(t, s.Scan(7))
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("done")
	require.NoError(t, err)
	assert.Equal(t, StepDone, s)

	_, err = ParseStep("Done")
	assert.ErrorContains(t, err, `unknown onboarding step "Done"`)
}

func TestStepJSON(t *testing.T) {
	b, err := json.Marshal(UserProfile{Phone: "1", Step: StepLocation})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"onboarding_step":"location"`)
	assert.Equal(t, "Step(200)", Step(200).String())
}

func TestOnboardingComplete(t *testing.T) {
	assert.True(t, (&UserProfile{Step: StepDone}).OnboardingComplete())
	assert.True(t, (&UserProfile{Step: StepAge, Verified: true}).OnboardingComplete())
	assert.False(t, (&UserProfile{Step: StepConsent}).OnboardingComplete())
}

func TestProfileUpdateApply(t *testing.T) {
	p := &UserProfile{Phone: "1", Step: StepConditions, FullName: "Asha", PendingMediaID: "m1"}
	step := StepConsent
	conditions := []string{"asthma"}
	empty := ""

	ProfileUpdate{Step: &step, ChronicConditions: &conditions, PendingMediaID: &empty}.Apply(p)

	assert.Equal(t, StepConsent, p.Step)
	assert.Equal(t, "Asha", p.FullName, "nil fields untouched")
	assert.Equal(t, []string{"asthma"}, p.ChronicConditions)
	assert.Empty(t, p.PendingMediaID)

	conditions[0] = "mutated"
	assert.Equal(t, "asthma", p.ChronicConditions[0], "slice is copied")
}
