package core

import (
	"fmt"
	"sort"
	"strings"
)

// MsgKey names one user-facing string.
type MsgKey string

const (
	MsgWelcome          MsgKey = "welcome"
	MsgBtnStartSetup    MsgKey = "btn_start_setup"
	MsgBtnAskQuestion   MsgKey = "btn_ask_question"
	MsgBtnLater         MsgKey = "btn_later"
	MsgLanguageHeader   MsgKey = "language_header"
	MsgLanguageBody     MsgKey = "language_body"
	MsgLanguageButton   MsgKey = "language_button"
	MsgLanguageSection  MsgKey = "language_section"
	MsgLanguageMore     MsgKey = "language_more"
	MsgAskName          MsgKey = "ask_name"
	MsgAskAge           MsgKey = "ask_age"
	MsgInvalidAge       MsgKey = "invalid_age"
	MsgGenderBody       MsgKey = "gender_body"
	MsgBtnMale          MsgKey = "btn_male"
	MsgBtnFemale        MsgKey = "btn_female"
	MsgBtnOther         MsgKey = "btn_other"
	MsgAskLocation      MsgKey = "ask_location"
	MsgAskConditions    MsgKey = "ask_conditions"
	MsgConsentBody      MsgKey = "consent_body"
	MsgBtnAgree         MsgKey = "btn_agree"
	MsgBtnDisagree      MsgKey = "btn_disagree"
	MsgSetupComplete    MsgKey = "setup_complete"
	MsgConsentDeclined  MsgKey = "consent_declined"
	MsgAskQuestionReady MsgKey = "ask_question_ready"
	MsgLaterAck         MsgKey = "later_ack"
	MsgChooseOption     MsgKey = "choose_option"
	MsgUnsupportedType  MsgKey = "unsupported_type"
	MsgAnalyzing        MsgKey = "analyzing"
	MsgPipelineError    MsgKey = "pipeline_error"
	MsgMissingLanguage  MsgKey = "missing_language"
	MsgImageReceived    MsgKey = "image_received"
	MsgImageFetchFailed MsgKey = "image_fetch_failed"
	MsgResetDone        MsgKey = "reset_done"
	MsgGenericError     MsgKey = "generic_error"
)

// allKeys must list every MsgKey; Validate checks the default table against it.
var allKeys = []MsgKey{
	MsgWelcome, MsgBtnStartSetup, MsgBtnAskQuestion, MsgBtnLater,
	MsgLanguageHeader, MsgLanguageBody, MsgLanguageButton, MsgLanguageSection, MsgLanguageMore,
	MsgAskName, MsgAskAge, MsgInvalidAge,
	MsgGenderBody, MsgBtnMale, MsgBtnFemale, MsgBtnOther,
	MsgAskLocation, MsgAskConditions,
	MsgConsentBody, MsgBtnAgree, MsgBtnDisagree,
	MsgSetupComplete, MsgConsentDeclined, MsgAskQuestionReady, MsgLaterAck,
	MsgChooseOption, MsgUnsupportedType,
	MsgAnalyzing, MsgPipelineError, MsgMissingLanguage,
	MsgImageReceived, MsgImageFetchFailed,
	MsgResetDone, MsgGenericError,
}

// Catalog looks up strings by (language, key), falling back to the default
// language table.
type Catalog struct {
	defaultLang string
	tables      map[string]map[MsgKey]string
	none        map[string][]string
}

// NewCatalog builds a catalog from per-language tables and "none" synonyms.
func NewCatalog(defaultLang string, tables map[string]map[MsgKey]string, none map[string][]string) *Catalog {
	c := &Catalog{
		defaultLang: defaultLang,
		tables:      tables,
		none:        make(map[string][]string, len(none)),
	}
	for lang, words := range none {
		normalized := make([]string, 0, len(words))
		for _, w := range words {
			normalized = append(normalized, normalizeNone(w))
		}
		c.none[lang] = normalized
	}
	return c
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(WorkingLanguage, builtinTables, builtinNoneWords)
}

// Validate fails if the default table is missing any key.  It is run once at
// startup.
func (c *Catalog) Validate() error {
	def, ok := c.tables[c.defaultLang]
	if !ok {
		return fmt.Errorf("catalog: no table for default language %q", c.defaultLang)
	}
	var missing []string
	for _, k := range allKeys {
		if strings.TrimSpace(def[k]) == "" {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("catalog: default language %q missing keys: %s", c.defaultLang, strings.Join(missing, ", "))
	}
	return nil
}

// Text returns the string for key in lang, or the default language's string.
func (c *Catalog) Text(lang string, key MsgKey) string {
	if t, ok := c.tables[lang]; ok {
		if s, ok := t[key]; ok && s != "" {
			return s
		}
	}
	if s, ok := c.tables[c.defaultLang][key]; ok {
		return s
	}
	return string(key)
}

// IsNone reports whether text means "no conditions" in lang or the default
// language.  Matching ignores case and surrounding whitespace and a trailing
// full stop.
func (c *Catalog) IsNone(lang, text string) bool {
	t := normalizeNone(text)
	if t == "" {
		return false
	}
	for _, l := range []string{lang, c.defaultLang} {
		for _, w := range c.none[l] {
			if w == t {
				return true
			}
		}
	}
	return false
}

func normalizeNone(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".!।")
	return strings.TrimSpace(s)
}
