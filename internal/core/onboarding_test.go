package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swasthyasathi/pkg"
)

const testPhone = "919876543210"

type onboardingFixture struct {
	store     *memStore
	notifier  *recordingNotifier
	geocoder  *stubGeocoder
	published *countingPublisher
	machine   *Onboarding
	catalog   *Catalog
}

func newOnboardingFixture(t *testing.T, start pkg.UserProfile) *onboardingFixture {
	t.Helper()
	f := &onboardingFixture{
		store:     newMemStore(),
		notifier:  &recordingNotifier{},
		geocoder:  &stubGeocoder{},
		published: &countingPublisher{},
		catalog:   DefaultCatalog(),
	}
	if start.Phone == "" {
		start.Phone = testPhone
	}
	f.store.put(start)
	f.machine = NewOnboarding(f.store, f.notifier, f.geocoder, f.published, f.catalog, nil)
	return f
}

// send runs one message against the currently stored profile.
func (f *onboardingFixture) send(t *testing.T, msg pkg.InboundMessage) pkg.UserProfile {
	t.Helper()
	p, err := f.store.Get(context.Background(), testPhone)
	require.NoError(t, err)
	msg.From = testPhone
	f.machine.Handle(context.Background(), p, msg)
	after, ok := f.store.snapshot(testPhone)
	require.True(t, ok)
	return after
}

func (f *onboardingFixture) walkToConsent(t *testing.T) {
	t.Helper()
	steps := []struct {
		msg  pkg.InboundMessage
		want pkg.Step
	}{
		{buttonMsg(testPhone, BtnStartSetup), pkg.StepLanguage},
		{listMsg(testPhone, "lang_hin_Deva"), pkg.StepName},
		{textMsg(testPhone, "  Asha Devi "), pkg.StepAge},
		{textMsg(testPhone, "42"), pkg.StepGender},
		{buttonMsg(testPhone, BtnGenderFem), pkg.StepLocation},
		{textMsg(testPhone, "751001"), pkg.StepConditions},
		{textMsg(testPhone, "diabetes, , hypertension "), pkg.StepConsent},
	}
	for _, s := range steps {
		p := f.send(t, s.msg)
		require.Equal(t, s.want, p.Step, "after %+v", s.msg)
	}
}

func TestOnboarding_FullFlowAgree(t *testing.T) {
	f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepStart})
	f.walkToConsent(t)

	p := f.send(t, buttonMsg(testPhone, BtnConsentYes))

	assert.Equal(t, pkg.StepDone, p.Step)
	assert.True(t, p.Verified)
	require.NotNil(t, p.Consent)
	assert.True(t, *p.Consent)
	assert.Equal(t, "hin_Deva", p.NativeLanguage)
	assert.Equal(t, "Asha Devi", p.FullName)
	assert.Equal(t, 42, p.Age)
	assert.Equal(t, pkg.GenderFemale, p.Gender)
	assert.Equal(t, "751001", p.Location.Pincode)
	assert.Equal(t, []string{"diabetes", "hypertension"}, p.ChronicConditions)
	assert.Equal(t, []string{testPhone}, f.published.phones)
	assert.Equal(t, f.catalog.Text("hin_Deva", MsgSetupComplete), f.notifier.last().text)
}

func TestOnboarding_FullFlowDisagree(t *testing.T) {
	f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepStart})
	f.walkToConsent(t)

	p := f.send(t, buttonMsg(testPhone, BtnConsentNo))

	assert.Equal(t, pkg.StepDone, p.Step)
	assert.False(t, p.Verified)
	require.NotNil(t, p.Consent)
	assert.False(t, *p.Consent)
	// declined users still reach the chat pipeline
	assert.True(t, p.OnboardingComplete())
}

func TestOnboarding_PromptsUseChosenLanguage(t *testing.T) {
	f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepLanguage})

	f.send(t, listMsg(testPhone, "lang_hin_Deva"))

	assert.Equal(t, f.catalog.Text("hin_Deva", MsgAskName), f.notifier.last().text)
}

func TestOnboarding_AgeValidation(t *testing.T) {
	for _, in := range []string{"0", "-5", "121", "abc", "", "35.5", "1e2"} {
		t.Run("reject "+in, func(t *testing.T) {
			f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepAge, NativeLanguage: "eng_Latn"})
			p := f.send(t, textMsg(testPhone, in))
			assert.Equal(t, pkg.StepAge, p.Step)
			assert.Zero(t, p.Age)
			assert.Equal(t, f.catalog.Text("eng_Latn", MsgInvalidAge), f.notifier.last().text)
		})
	}
	for in, want := range map[string]int{"1": 1, "35": 35, "120": 120, " 64 ": 64} {
		t.Run("accept "+in, func(t *testing.T) {
			f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepAge, NativeLanguage: "eng_Latn"})
			p := f.send(t, textMsg(testPhone, in))
			assert.Equal(t, pkg.StepGender, p.Step)
			assert.Equal(t, want, p.Age)
			last := f.notifier.last()
			assert.Equal(t, sentButtons, last.kind)
			require.Len(t, last.buttons, 3)
			assert.Equal(t, BtnGenderMale, last.buttons[0].ID)
		})
	}
}

func TestOnboarding_LanguagePagination(t *testing.T) {
	f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepStart})

	f.send(t, buttonMsg(testPhone, BtnStartSetup))
	first := f.notifier.last()
	require.Equal(t, sentList, first.kind)
	require.Len(t, first.list.Rows, languagesPerPage+1)
	more := first.list.Rows[len(first.list.Rows)-1]
	assert.Equal(t, "lang_more_2", more.ID)

	p := f.send(t, listMsg(testPhone, more.ID))
	assert.Equal(t, pkg.StepLanguage, p.Step)
	second := f.notifier.last()
	assert.Equal(t, "lang_more_3", second.list.Rows[len(second.list.Rows)-1].ID)

	p = f.send(t, listMsg(testPhone, "lang_more_3"))
	assert.Equal(t, pkg.StepLanguage, p.Step)
	for _, row := range f.notifier.last().list.Rows {
		assert.NotContains(t, row.ID, languageMorePrefix)
	}
}

func TestOnboarding_GarbageInputDoesNotAdvance(t *testing.T) {
	cases := []struct {
		name string
		step pkg.Step
		msg  pkg.InboundMessage
		want MsgKey
	}{
		{"text at language", pkg.StepLanguage, textMsg(testPhone, "Hindi"), MsgChooseOption},
		{"unknown language row", pkg.StepLanguage, listMsg(testPhone, "lang_xx_Yyyy"), MsgChooseOption},
		{"page out of range", pkg.StepLanguage, listMsg(testPhone, "lang_more_9"), MsgChooseOption},
		{"button at name", pkg.StepName, buttonMsg(testPhone, BtnGenderMale), MsgUnsupportedType},
		{"text at gender", pkg.StepGender, textMsg(testPhone, "male"), MsgChooseOption},
		{"wrong button at gender", pkg.StepGender, buttonMsg(testPhone, BtnConsentYes), MsgChooseOption},
		{"image at conditions", pkg.StepConditions, imageMsg(testPhone, "m1"), MsgUnsupportedType},
		{"text at consent", pkg.StepConsent, textMsg(testPhone, "yes"), MsgChooseOption},
		{"list at location", pkg.StepLocation, listMsg(testPhone, "lang_hin_Deva"), MsgUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOnboardingFixture(t, pkg.UserProfile{Step: tc.step, NativeLanguage: "eng_Latn"})
			p := f.send(t, tc.msg)
			assert.Equal(t, tc.step, p.Step)
			assert.Equal(t, f.catalog.Text("eng_Latn", tc.want), f.notifier.last().text)
		})
	}
}

func TestOnboarding_StartMenuAndSidePaths(t *testing.T) {
	t.Run("unset step shows menu", func(t *testing.T) {
		f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepNone})
		p := f.send(t, textMsg(testPhone, "hello"))
		assert.Equal(t, pkg.StepStart, p.Step)
		last := f.notifier.last()
		require.Equal(t, sentButtons, last.kind)
		assert.Equal(t, []string{BtnStartSetup, BtnAskQuestion, BtnLater},
			[]string{last.buttons[0].ID, last.buttons[1].ID, last.buttons[2].ID})
	})

	t.Run("ask a question skips setup", func(t *testing.T) {
		f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepStart})
		p := f.send(t, buttonMsg(testPhone, BtnAskQuestion))
		assert.Equal(t, pkg.StepDone, p.Step)
		assert.True(t, p.Verified)
		assert.Equal(t, WorkingLanguage, p.NativeLanguage)
		assert.Len(t, f.published.phones, 1)
	})

	t.Run("later clears the step", func(t *testing.T) {
		f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepStart})
		p := f.send(t, buttonMsg(testPhone, BtnLater))
		assert.Equal(t, pkg.StepNone, p.Step)
		assert.Equal(t, f.catalog.Text(WorkingLanguage, MsgLaterAck), f.notifier.last().text)

		p = f.send(t, buttonMsg(testPhone, BtnStartSetup))
		assert.Equal(t, pkg.StepLanguage, p.Step)
	})
}

func TestOnboarding_Location(t *testing.T) {
	t.Run("city and state", func(t *testing.T) {
		f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepLocation})
		p := f.send(t, textMsg(testPhone, " Cuttack , Odisha, India"))
		assert.Equal(t, pkg.StepConditions, p.Step)
		assert.Equal(t, "Cuttack", p.Location.City)
		assert.Equal(t, "Odisha", p.Location.State)
		assert.Empty(t, p.Location.Pincode)
	})

	t.Run("shared location is reverse geocoded", func(t *testing.T) {
		f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepLocation})
		f.geocoder.loc = pkg.Location{Pincode: "751001", District: "Khordha", City: "Bhubaneswar", State: "Odisha"}
		msg := pkg.InboundMessage{Kind: pkg.KindLocation, Location: &pkg.GeoPoint{Latitude: 20.27, Longitude: 85.84}}
		p := f.send(t, msg)
		assert.Equal(t, pkg.StepConditions, p.Step)
		assert.Equal(t, "751001", p.Location.Pincode)
		assert.Equal(t, "Khordha", p.Location.District)
		require.NotNil(t, p.Location.Latitude)
		assert.InDelta(t, 20.27, *p.Location.Latitude, 1e-9)
	})

	t.Run("geocoder failure keeps coordinates", func(t *testing.T) {
		f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepLocation})
		f.geocoder.err = errors.New("timeout")
		msg := pkg.InboundMessage{Kind: pkg.KindLocation, Location: &pkg.GeoPoint{Latitude: 20.27, Longitude: 85.84}}
		p := f.send(t, msg)
		assert.Equal(t, pkg.StepConditions, p.Step)
		assert.Empty(t, p.Location.Pincode)
		require.NotNil(t, p.Location.Longitude)
		assert.InDelta(t, 85.84, *p.Location.Longitude, 1e-9)
	})
}

func TestOnboarding_NoneConditions(t *testing.T) {
	for _, tc := range []struct{ lang, text string }{
		{"eng_Latn", "None"},
		{"eng_Latn", "  NOTHING. "},
		{"hin_Deva", "कोई नहीं"},
		{"hin_Deva", "none"},
		{"ory_Orya", "କିଛି ନାହିଁ"},
		{"ben_Beng", "কিছু না"},
	} {
		t.Run(tc.lang+" "+tc.text, func(t *testing.T) {
			f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepConditions, NativeLanguage: tc.lang})
			p := f.send(t, textMsg(testPhone, tc.text))
			assert.Equal(t, pkg.StepConsent, p.Step)
			assert.NotNil(t, p.ChronicConditions)
			assert.Empty(t, p.ChronicConditions)
		})
	}
}

func TestOnboarding_StoreFailureApologizes(t *testing.T) {
	f := newOnboardingFixture(t, pkg.UserProfile{Step: pkg.StepName})
	f.store.failNext = errors.New("connection reset")

	p := f.send(t, textMsg(testPhone, "Ravi"))

	assert.Equal(t, pkg.StepName, p.Step)
	assert.Empty(t, p.FullName)
	assert.Equal(t, f.catalog.Text(WorkingLanguage, MsgGenericError), f.notifier.last().text)
}

func TestParseLocationText(t *testing.T) {
	_, ok := ParseLocationText("   ")
	assert.False(t, ok)
	_, ok = ParseLocationText(" , ")
	assert.False(t, ok)

	loc, ok := ParseLocationText("12345")
	require.True(t, ok)
	assert.Equal(t, "12345", loc.City, "five digits are not a pincode")

	loc, ok = ParseLocationText("Puri")
	require.True(t, ok)
	assert.Equal(t, pkg.Location{City: "Puri"}, loc)
}
