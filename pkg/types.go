package pkg

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Step is the onboarding cursor persisted on a user profile.  It is a closed
// enumeration: the zero value is StepNone (an unset or NULL column) and every
// other value has exactly one textual form in the database.
type Step uint8

const (
	StepNone Step = iota
	StepStart
	StepLanguage
	StepName
	StepAge
	StepGender
	StepLocation
	StepConditions
	StepConsent
	StepDone
)

var stepNames = [...]string{
	StepNone:       "",
	StepStart:      "start",
	StepLanguage:   "language",
	StepName:       "name",
	StepAge:        "age",
	StepGender:     "gender",
	StepLocation:   "location",
	StepConditions: "conditions",
	StepConsent:    "consent",
	StepDone:       "done",
}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		if s == StepNone {
			return "none"
		}
		return stepNames[s]
	}
	return fmt.Sprintf("Step(%d)", uint8(s))
}

// ParseStep converts the stored representation back into a Step.  An empty
// string maps to StepNone.
func ParseStep(v string) (Step, error) {
	for i, name := range stepNames {
		if name == v {
			return Step(i), nil
		}
	}
	return StepNone, fmt.Errorf("unknown onboarding step %q", v)
}

// MarshalText renders the step by name for JSON.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Value stores StepNone as NULL and everything else by name.
func (s Step) Value() (driver.Value, error) {
	if s == StepNone {
		return nil, nil
	}
	if int(s) >= len(stepNames) {
		return nil, fmt.Errorf("invalid onboarding step %d", uint8(s))
	}
	return stepNames[s], nil
}

// Scan implements sql.Scanner.
func (s *Step) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = StepNone
		return nil
	case string:
		parsed, err := ParseStep(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Step", src)
	}
}

// Gender is one of the three values offered by the gender buttons.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Location is either a pincode or a city/state pair, optionally enriched by
// reverse geocoding a shared location.
type Location struct {
	Pincode     string   `json:"pincode,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	District    string   `json:"district,omitempty"`
	Subdistrict string   `json:"subdistrict,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// UserProfile is one row of the users table, keyed by phone number.
type UserProfile struct {
	Phone             string    `json:"phone_number"`
	Step              Step      `json:"onboarding_step"`
	Verified          bool      `json:"verified"`
	NativeLanguage    string    `json:"native_language,omitempty"`
	FullName          string    `json:"full_name,omitempty"`
	Age               int       `json:"age,omitempty"`
	Gender            Gender    `json:"gender,omitempty"`
	Location          Location  `json:"location"`
	ChronicConditions []string  `json:"chronic_conditions"`
	Consent           *bool     `json:"consent,omitempty"`
	PendingMediaID    string    `json:"pending_media_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	LastActive        time.Time `json:"last_active"`
}

// OnboardingComplete reports whether the user may use the chat pipeline.
// Users who declined consent reach StepDone without being verified and are
// still let through.
func (p *UserProfile) OnboardingComplete() bool {
	return p.Step == StepDone || p.Verified
}

// ProfileUpdate is a partial update.  Nil fields are left untouched.  An
// empty PendingMediaID clears the column.
type ProfileUpdate struct {
	Step              *Step
	Verified          *bool
	NativeLanguage    *string
	FullName          *string
	Age               *int
	Gender            *Gender
	Location          *Location
	ChronicConditions *[]string
	Consent           *bool
	PendingMediaID    *string
}

// Apply merges the update into p.  Stores use it to keep an in-memory copy in
// sync with what they wrote.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.Step != nil {
		p.Step = *u.Step
	}
	if u.Verified != nil {
		p.Verified = *u.Verified
	}
	if u.NativeLanguage != nil {
		p.NativeLanguage = *u.NativeLanguage
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.ChronicConditions != nil {
		p.ChronicConditions = append([]string(nil), (*u.ChronicConditions)...)
	}
	if u.Consent != nil {
		c := *u.Consent
		p.Consent = &c
	}
	if u.PendingMediaID != nil {
		p.PendingMediaID = *u.PendingMediaID
	}
}

// ChatLogEntry is an append-only audit record of one answered question.  Both
// texts are in the user's native language.
type ChatLogEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MessageIn  string    `json:"message_in"`
	MessageOut string    `json:"message_out"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageKind tags the inbound message union.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindButton      MessageKind = "button_reply"
	KindList        MessageKind = "list_reply"
	KindLocation    MessageKind = "location"
	KindImage       MessageKind = "image"
	KindUnsupported MessageKind = "unsupported"
)

// GeoPoint is a shared location.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// InboundMessage is one message received from the channel.  Only the payload
// field matching Kind is populated.
type InboundMessage struct {
	ID        string      `json:"id"`
	From      string      `json:"from"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	ReplyID   string      `json:"reply_id,omitempty"`
	Location  *GeoPoint   `json:"location,omitempty"`
	MediaID   string      `json:"media_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Image is a resolved media payload ready to be handed to an analyzer.
type Image struct {
	MimeType string
	Data     []byte
}
