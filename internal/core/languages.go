package core

import (
	"strconv"
	"strings"
)

// WorkingLanguage is the code every analysis is performed in.
const WorkingLanguage = "eng_Latn"

const (
	languageRowPrefix  = "lang_"
	languageMorePrefix = "lang_more_"
	languagesPerPage   = 9
)

// Language is one selectable conversation language.  Code is the
// IndicTrans2-style code stored on the profile; ISO is the code used by
// translation backends (empty when none supports it).
type Language struct {
	Code   string
	ISO    string
	Native string
	Name   string
}

// Languages is ordered as presented in the picker.
var Languages = []Language{
	{Code: "eng_Latn", ISO: "en", Native: "English", Name: "English"},
	{Code: "hin_Deva", ISO: "hi", Native: "हिन्दी", Name: "Hindi"},
	{Code: "ory_Orya", ISO: "or", Native: "ଓଡ଼ିଆ", Name: "Odia"},
	{Code: "ben_Beng", ISO: "bn", Native: "বাংলা", Name: "Bengali"},
	{Code: "tel_Telu", ISO: "te", Native: "తెలుగు", Name: "Telugu"},
	{Code: "tam_Taml", ISO: "ta", Native: "தமிழ்", Name: "Tamil"},
	{Code: "mar_Deva", ISO: "mr", Native: "मराठी", Name: "Marathi"},
	{Code: "guj_Gujr", ISO: "gu", Native: "ગુજરાતી", Name: "Gujarati"},
	{Code: "kan_Knda", ISO: "kn", Native: "ಕನ್ನಡ", Name: "Kannada"},
	{Code: "mal_Mlym", ISO: "ml", Native: "മലയാളം", Name: "Malayalam"},
	{Code: "pan_Guru", ISO: "pa", Native: "ਪੰਜਾਬੀ", Name: "Punjabi"},
	{Code: "asm_Beng", ISO: "as", Native: "অসমীয়া", Name: "Assamese"},
	{Code: "urd_Arab", ISO: "ur", Native: "اردو", Name: "Urdu"},
	{Code: "npi_Deva", ISO: "ne", Native: "नेपाली", Name: "Nepali"},
	{Code: "san_Deva", ISO: "sa", Native: "संस्कृतम्", Name: "Sanskrit"},
	{Code: "kas_Arab", ISO: "ks", Native: "کٲشُر", Name: "Kashmiri"},
	{Code: "snd_Arab", ISO: "sd", Native: "سنڌي", Name: "Sindhi"},
	{Code: "mai_Deva", ISO: "mai", Native: "मैथिली", Name: "Maithili"},
	{Code: "doi_Deva", ISO: "doi", Native: "डोगरी", Name: "Dogri"},
	{Code: "gom_Deva", ISO: "gom", Native: "कोंकणी", Name: "Konkani"},
	{Code: "mni_Beng", ISO: "mni-Mtei", Native: "মৈতৈলোন্", Name: "Manipuri"},
	{Code: "sat_Olck", ISO: "sat", Native: "ᱥᱟᱱᱛᱟᱲᱤ", Name: "Santali"},
	{Code: "brx_Deva", ISO: "", Native: "बड़ो", Name: "Bodo"},
}

// LanguagePageCount is the number of picker pages.
func LanguagePageCount() int {
	return (len(Languages) + languagesPerPage - 1) / languagesPerPage
}

// LookupLanguage finds a language by its stored code.
func LookupLanguage(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// ISOCode maps a stored code to the translation backend code.
func ISOCode(code string) (string, bool) {
	l, ok := LookupLanguage(code)
	if !ok || l.ISO == "" {
		return "", false
	}
	return l.ISO, true
}

// LanguagePage returns the rows for a 1-based page.  Every page but the last
// ends with a row requesting the next one.
func LanguagePage(page int, moreTitle string) []ListRow {
	pages := LanguagePageCount()
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * languagesPerPage
	end := start + languagesPerPage
	if end > len(Languages) {
		end = len(Languages)
	}
	rows := make([]ListRow, 0, languagesPerPage+1)
	for _, l := range Languages[start:end] {
		rows = append(rows, ListRow{ID: languageRowPrefix + l.Code, Title: l.Native, Description: l.Name})
	}
	if page < pages {
		rows = append(rows, ListRow{
			ID:    languageMorePrefix + strconv.Itoa(page+1),
			Title: moreTitle,
		})
	}
	return rows
}

// parseLanguageRow classifies a list reply id.  It returns either a language
// code or a page number; ok is false for anything unrecognised.
func parseLanguageRow(id string) (code string, page int, ok bool) {
	if strings.HasPrefix(id, languageMorePrefix) {
		n, err := strconv.Atoi(strings.TrimPrefix(id, languageMorePrefix))
		if err != nil || n < 1 || n > LanguagePageCount() {
			return "", 0, false
		}
		return "", n, true
	}
	if strings.HasPrefix(id, languageRowPrefix) {
		c := strings.TrimPrefix(id, languageRowPrefix)
		if _, known := LookupLanguage(c); known {
			return c, 0, true
		}
	}
	return "", 0, false
}
