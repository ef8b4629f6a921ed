package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"swasthyasathi/internal/metrics"
	"swasthyasathi/pkg"
)

// Reply ids carried by the buttons this package sends.
const (
	BtnStartSetup  = "start_setup"
	BtnAskQuestion = "ask_question"
	BtnLater       = "later"
	BtnGenderMale  = "gender_m"
	BtnGenderFem   = "gender_f"
	BtnGenderOther = "gender_o"
	BtnConsentYes  = "consent_yes"
	BtnConsentNo   = "consent_no"
)

const (
	MinAge = 1
	MaxAge = 120
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// Onboarding advances a user's profile one step per inbound message.
type Onboarding struct {
	store      ProfileStore
	notifier   Notifier
	geocoder   Geocoder
	completion CompletionPublisher
	catalog    *Catalog
	logger     *zap.Logger
}

// NewOnboarding wires the state machine.  geocoder and completion may be nil.
func NewOnboarding(store ProfileStore, notifier Notifier, geocoder Geocoder, completion CompletionPublisher, catalog *Catalog, logger *zap.Logger) *Onboarding {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Onboarding{
		store:      store,
		notifier:   notifier,
		geocoder:   geocoder,
		completion: completion,
		catalog:    catalog,
		logger:     logger,
	}
}

// Handle processes one message for a profile that has not finished
// onboarding.  Failures of the store or notifier end in an apology; the step
// is left where it was.
func (o *Onboarding) Handle(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) {
	if err := o.handle(ctx, p, msg); err != nil {
		o.logger.Error("onboarding step failed",
			zap.String("phone", p.Phone),
			zap.Stringer("step", p.Step),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		if sendErr := o.notifier.SendText(ctx, p.Phone, o.text(p, MsgGenericError)); sendErr != nil {
			o.logger.Warn("failed to send onboarding apology", zap.String("phone", p.Phone), zap.Error(sendErr))
		}
	}
}

func (o *Onboarding) handle(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	switch p.Step {
	case pkg.StepNone, pkg.StepStart:
		return o.onStart(ctx, p, msg)
	case pkg.StepLanguage:
		return o.onLanguage(ctx, p, msg)
	case pkg.StepName:
		return o.onName(ctx, p, msg)
	case pkg.StepAge:
		return o.onAge(ctx, p, msg)
	case pkg.StepGender:
		return o.onGender(ctx, p, msg)
	case pkg.StepLocation:
		return o.onLocation(ctx, p, msg)
	case pkg.StepConditions:
		return o.onConditions(ctx, p, msg)
	case pkg.StepConsent:
		return o.onConsent(ctx, p, msg)
	case pkg.StepDone:
		// routed to the chat pipeline by the dispatcher
		return nil
	default:
		return fmt.Errorf("unhandled onboarding step %s", p.Step)
	}
}

func (o *Onboarding) onStart(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind == pkg.KindButton {
		switch msg.ReplyID {
		case BtnStartSetup:
			if err := o.advance(ctx, p, pkg.StepLanguage, pkg.ProfileUpdate{}); err != nil {
				return err
			}
			return o.SendLanguagePage(ctx, p, 1)
		case BtnAskQuestion:
			u := pkg.ProfileUpdate{Verified: boolPtr(true)}
			if p.NativeLanguage == "" {
				lang := WorkingLanguage
				u.NativeLanguage = &lang
			}
			if err := o.advance(ctx, p, pkg.StepDone, u); err != nil {
				return err
			}
			o.publishCompletion(ctx, p)
			return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgAskQuestionReady))
		case BtnLater:
			if err := o.advance(ctx, p, pkg.StepNone, pkg.ProfileUpdate{}); err != nil {
				return err
			}
			return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgLaterAck))
		}
	}
	if p.Step == pkg.StepNone {
		if err := o.advance(ctx, p, pkg.StepStart, pkg.ProfileUpdate{}); err != nil {
			return err
		}
	}
	return o.SendStartMenu(ctx, p)
}

func (o *Onboarding) onLanguage(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindList {
		return o.chooseOption(ctx, p)
	}
	code, page, ok := parseLanguageRow(msg.ReplyID)
	if !ok {
		return o.chooseOption(ctx, p)
	}
	if page > 0 {
		return o.SendLanguagePage(ctx, p, page)
	}
	if err := o.advance(ctx, p, pkg.StepName, pkg.ProfileUpdate{NativeLanguage: &code}); err != nil {
		return err
	}
	return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgAskName))
}

func (o *Onboarding) onName(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindText {
		return o.unsupported(ctx, p)
	}
	name := strings.TrimSpace(msg.Text)
	if name == "" {
		return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgAskName))
	}
	if err := o.advance(ctx, p, pkg.StepAge, pkg.ProfileUpdate{FullName: &name}); err != nil {
		return err
	}
	return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgAskAge))
}

func (o *Onboarding) onAge(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindText {
		return o.unsupported(ctx, p)
	}
	age, ok := ParseAge(msg.Text)
	if !ok {
		return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgInvalidAge))
	}
	if err := o.advance(ctx, p, pkg.StepGender, pkg.ProfileUpdate{Age: &age}); err != nil {
		return err
	}
	return o.notifier.SendButtons(ctx, p.Phone, o.text(p, MsgGenderBody), []Button{
		{ID: BtnGenderMale, Title: o.text(p, MsgBtnMale)},
		{ID: BtnGenderFem, Title: o.text(p, MsgBtnFemale)},
		{ID: BtnGenderOther, Title: o.text(p, MsgBtnOther)},
	})
}

func (o *Onboarding) onGender(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindButton {
		return o.chooseOption(ctx, p)
	}
	var g pkg.Gender
	switch msg.ReplyID {
	case BtnGenderMale:
		g = pkg.GenderMale
	case BtnGenderFem:
		g = pkg.GenderFemale
	case BtnGenderOther:
		g = pkg.GenderOther
	default:
		return o.chooseOption(ctx, p)
	}
	if err := o.advance(ctx, p, pkg.StepLocation, pkg.ProfileUpdate{Gender: &g}); err != nil {
		return err
	}
	return o.notifier.SendLocationRequest(ctx, p.Phone, o.text(p, MsgAskLocation))
}

func (o *Onboarding) onLocation(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	var loc pkg.Location
	switch msg.Kind {
	case pkg.KindText:
		parsed, ok := ParseLocationText(msg.Text)
		if !ok {
			return o.notifier.SendLocationRequest(ctx, p.Phone, o.text(p, MsgAskLocation))
		}
		loc = parsed
	case pkg.KindLocation:
		if msg.Location == nil {
			return o.unsupported(ctx, p)
		}
		loc = o.resolveLocation(ctx, p, *msg.Location)
	default:
		return o.unsupported(ctx, p)
	}
	if err := o.advance(ctx, p, pkg.StepConditions, pkg.ProfileUpdate{Location: &loc}); err != nil {
		return err
	}
	return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgAskConditions))
}

// resolveLocation reverse-geocodes a shared point, keeping the raw
// coordinates either way.
func (o *Onboarding) resolveLocation(ctx context.Context, p *pkg.UserProfile, pt pkg.GeoPoint) pkg.Location {
	lat, lon := pt.Latitude, pt.Longitude
	raw := pkg.Location{Latitude: &lat, Longitude: &lon}
	if o.geocoder == nil {
		return raw
	}
	loc, err := o.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		o.logger.Warn("reverse geocoding failed, keeping coordinates",
			zap.String("phone", p.Phone),
			zap.Float64("latitude", lat),
			zap.Float64("longitude", lon),
			zap.Error(err),
		)
		return raw
	}
	loc.Latitude, loc.Longitude = &lat, &lon
	return loc
}

func (o *Onboarding) onConditions(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindText {
		return o.unsupported(ctx, p)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgAskConditions))
	}
	conditions := ParseConditions(o.catalog, o.lang(p), msg.Text)
	if err := o.advance(ctx, p, pkg.StepConsent, pkg.ProfileUpdate{ChronicConditions: &conditions}); err != nil {
		return err
	}
	return o.notifier.SendButtons(ctx, p.Phone, o.text(p, MsgConsentBody), []Button{
		{ID: BtnConsentYes, Title: o.text(p, MsgBtnAgree)},
		{ID: BtnConsentNo, Title: o.text(p, MsgBtnDisagree)},
	})
}

func (o *Onboarding) onConsent(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindButton {
		return o.chooseOption(ctx, p)
	}
	var agreed bool
	switch msg.ReplyID {
	case BtnConsentYes:
		agreed = true
	case BtnConsentNo:
		agreed = false
	default:
		return o.chooseOption(ctx, p)
	}
	u := pkg.ProfileUpdate{Consent: boolPtr(agreed), Verified: boolPtr(agreed)}
	if err := o.advance(ctx, p, pkg.StepDone, u); err != nil {
		return err
	}
	o.publishCompletion(ctx, p)
	if agreed {
		return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgSetupComplete))
	}
	return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgConsentDeclined))
}

// SendStartMenu sends the three start buttons.
func (o *Onboarding) SendStartMenu(ctx context.Context, p *pkg.UserProfile) error {
	return o.notifier.SendButtons(ctx, p.Phone, o.text(p, MsgWelcome), []Button{
		{ID: BtnStartSetup, Title: o.text(p, MsgBtnStartSetup)},
		{ID: BtnAskQuestion, Title: o.text(p, MsgBtnAskQuestion)},
		{ID: BtnLater, Title: o.text(p, MsgBtnLater)},
	})
}

// SendLanguagePage sends one page of the language picker.
func (o *Onboarding) SendLanguagePage(ctx context.Context, p *pkg.UserProfile, page int) error {
	return o.notifier.SendList(ctx, p.Phone, ListPrompt{
		Header:     o.text(p, MsgLanguageHeader),
		Body:       o.text(p, MsgLanguageBody),
		ButtonText: o.text(p, MsgLanguageButton),
		Section:    o.text(p, MsgLanguageSection),
		Rows:       LanguagePage(page, o.text(p, MsgLanguageMore)),
	})
}

// advance persists u together with the next step and mirrors it onto p.
func (o *Onboarding) advance(ctx context.Context, p *pkg.UserProfile, next pkg.Step, u pkg.ProfileUpdate) error {
	u.Step = &next
	if err := o.store.Update(ctx, p.Phone, u); err != nil {
		return fmt.Errorf("update profile to step %s: %w", next, err)
	}
	from := p.Step
	u.Apply(p)
	metrics.Transition(from.String(), next.String())
	o.logger.Debug("onboarding step advanced",
		zap.String("phone", p.Phone),
		zap.Stringer("from", from),
		zap.Stringer("to", next),
	)
	return nil
}

func (o *Onboarding) publishCompletion(ctx context.Context, p *pkg.UserProfile) {
	if o.completion == nil {
		return
	}
	if err := o.completion.Notify(ctx, p.Phone); err != nil {
		o.logger.Warn("failed to publish onboarding completion", zap.String("phone", p.Phone), zap.Error(err))
	}
}

func (o *Onboarding) chooseOption(ctx context.Context, p *pkg.UserProfile) error {
	return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgChooseOption))
}

func (o *Onboarding) unsupported(ctx context.Context, p *pkg.UserProfile) error {
	return o.notifier.SendText(ctx, p.Phone, o.text(p, MsgUnsupportedType))
}

func (o *Onboarding) lang(p *pkg.UserProfile) string {
	if p.NativeLanguage == "" {
		return WorkingLanguage
	}
	return p.NativeLanguage
}

func (o *Onboarding) text(p *pkg.UserProfile, key MsgKey) string {
	return o.catalog.Text(o.lang(p), key)
}

// ParseAge accepts a whole number of years in [MinAge, MaxAge].
func ParseAge(s string) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || age < MinAge || age > MaxAge {
		return 0, false
	}
	return age, true
}

// ParseLocationText reads a 6-digit pincode or a "city, state" pair.
func ParseLocationText(s string) (pkg.Location, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pkg.Location{}, false
	}
	if pincodePattern.MatchString(s) {
		return pkg.Location{Pincode: s}, true
	}
	parts := strings.Split(s, ",")
	loc := pkg.Location{City: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		loc.State = strings.TrimSpace(parts[1])
	}
	if loc.City == "" && loc.State == "" {
		return pkg.Location{}, false
	}
	return loc, true
}

// ParseConditions returns an empty list for a "none" answer, otherwise the
// comma separated, trimmed, non-empty segments.
func ParseConditions(c *Catalog, lang, s string) []string {
	out := []string{}
	if c.IsNone(lang, s) {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
