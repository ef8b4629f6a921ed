package core

// prompts.go holds the user-facing message tables and the profile context
// handed to the analyzer.  English is the default table and must carry every
// key; other tables may be partial.

import (
	"fmt"
	"strings"

	"swasthyasathi/pkg"
)

var builtinTables = map[string]map[MsgKey]string{
	"eng_Latn": {
		MsgWelcome:          "Welcome to SwasthyaSathi! How would you like to start?",
		MsgBtnStartSetup:    "Start Setup",
		MsgBtnAskQuestion:   "Ask a Question",
		MsgBtnLater:         "Later",
		MsgLanguageHeader:   "Language Preference",
		MsgLanguageBody:     "Choose your preferred conversation language",
		MsgLanguageButton:   "Choose Language",
		MsgLanguageSection:  "Languages",
		MsgLanguageMore:     "More languages ➡️",
		MsgAskName:          "Great, language saved. What is your full name?",
		MsgAskAge:           "Please enter your age (in years).",
		MsgInvalidAge:       "Please enter a valid numeric age between 1 and 120 (e.g., 35).",
		MsgGenderBody:       "Please select your gender",
		MsgBtnMale:          "Male",
		MsgBtnFemale:        "Female",
		MsgBtnOther:         "Other",
		MsgAskLocation:      "Please share your location, or type your city and state (e.g., Bhubaneswar, Odisha) or your 6-digit PIN code.",
		MsgAskConditions:    `Any chronic conditions? (e.g., Diabetes, Hypertension). Reply "None" if none.`,
		MsgConsentBody:      "Do you consent to store your health data securely for personalized advice?",
		MsgBtnAgree:         "I Agree",
		MsgBtnDisagree:      "I Do Not Agree",
		MsgSetupComplete:    "Thank you, setup complete. You can ask health questions anytime.",
		MsgConsentDeclined:  "Understood. Profile not saved. You may still ask general questions.",
		MsgAskQuestionReady: "You can ask your health question now. (Tip: include symptoms & duration)",
		MsgLaterAck:         "No problem. Message anytime to get started.",
		MsgChooseOption:     "Please choose one of the options above.",
		MsgUnsupportedType:  "This message type is not supported here. Please reply with text.",
		MsgAnalyzing:        "Analyzing your question now, please wait...",
		MsgPipelineError:    "Sorry, I could not analyze your question right now. Please send it again.",
		MsgMissingLanguage:  `Sorry, I couldn't find your language preference. Send "reset profile" to start again.`,
		MsgImageReceived:    "Image received. Please describe your symptoms or your question about this image.",
		MsgImageFetchFailed: "Sorry, I couldn't open your image. Please send it again.",
		MsgResetDone:        "Your profile has been deleted. Send any message to start again.",
		MsgGenericError:     "Sorry, something went wrong. Please try again.",
	},
	"hin_Deva": {
		MsgWelcome:          "स्वास्थ्यसाथी में आपका स्वागत है! आप कैसे शुरू करना चाहेंगे?",
		MsgBtnStartSetup:    "सेटअप शुरू करें",
		MsgBtnAskQuestion:   "प्रश्न पूछें",
		MsgBtnLater:         "बाद में",
		MsgLanguageHeader:   "भाषा चुनें",
		MsgLanguageBody:     "बातचीत के लिए अपनी पसंदीदा भाषा चुनें",
		MsgLanguageButton:   "भाषा चुनें",
		MsgLanguageSection:  "भाषाएँ",
		MsgLanguageMore:     "और भाषाएँ ➡️",
		MsgAskName:          "बढ़िया, भाषा सहेज ली गई। आपका पूरा नाम क्या है?",
		MsgAskAge:           "कृपया अपनी उम्र (वर्षों में) दर्ज करें।",
		MsgInvalidAge:       "कृपया 1 से 120 के बीच सही उम्र अंकों में लिखें (जैसे 35)।",
		MsgGenderBody:       "कृपया अपना लिंग चुनें",
		MsgBtnMale:          "पुरुष",
		MsgBtnFemale:        "महिला",
		MsgBtnOther:         "अन्य",
		MsgAskLocation:      "कृपया अपना लोकेशन भेजें, या अपना शहर और राज्य (जैसे भुवनेश्वर, ओडिशा) या 6 अंकों का पिन कोड लिखें।",
		MsgAskConditions:    `क्या आपको कोई पुरानी बीमारी है? (जैसे डायबिटीज़, हाई बीपी)। न हो तो "कोई नहीं" लिखें।`,
		MsgConsentBody:      "क्या आप व्यक्तिगत सलाह के लिए अपने स्वास्थ्य डेटा को सुरक्षित रखने की सहमति देते हैं?",
		MsgBtnAgree:         "मैं सहमत हूँ",
		MsgBtnDisagree:      "मैं सहमत नहीं हूँ",
		MsgSetupComplete:    "धन्यवाद, सेटअप पूरा हुआ। आप कभी भी स्वास्थ्य प्रश्न पूछ सकते हैं।",
		MsgConsentDeclined:  "ठीक है। प्रोफ़ाइल सहेजी नहीं गई। आप फिर भी सामान्य प्रश्न पूछ सकते हैं।",
		MsgAskQuestionReady: "अब आप अपना स्वास्थ्य प्रश्न पूछ सकते हैं। (सुझाव: लक्षण और अवधि लिखें)",
		MsgLaterAck:         "कोई बात नहीं। शुरू करने के लिए कभी भी संदेश भेजें।",
		MsgChooseOption:     "कृपया ऊपर दिए गए विकल्पों में से एक चुनें।",
		MsgUnsupportedType:  "यह संदेश प्रकार यहाँ समर्थित नहीं है। कृपया टेक्स्ट में उत्तर दें।",
		MsgAnalyzing:        "आपके प्रश्न का विश्लेषण हो रहा है, कृपया प्रतीक्षा करें...",
		MsgPipelineError:    "क्षमा करें, अभी आपके प्रश्न का विश्लेषण नहीं हो सका। कृपया दोबारा भेजें।",
		MsgImageReceived:    "तस्वीर मिल गई। कृपया इस तस्वीर से जुड़े अपने लक्षण या प्रश्न लिखें।",
		MsgImageFetchFailed: "क्षमा करें, आपकी तस्वीर नहीं खुल सकी। कृपया दोबारा भेजें।",
		MsgResetDone:        "आपकी प्रोफ़ाइल हटा दी गई है। फिर से शुरू करने के लिए कोई भी संदेश भेजें।",
		MsgGenericError:     "क्षमा करें, कुछ गलत हो गया। कृपया फिर से प्रयास करें।",
	},
	"ory_Orya": {
		MsgWelcome:          "ସ୍ୱାସ୍ଥ୍ୟସାଥୀକୁ ସ୍ୱାଗତ! ଆପଣ କିପରି ଆରମ୍ଭ କରିବାକୁ ଚାହିଁବେ?",
		MsgAskName:          "ବହୁତ ଭଲ, ଭାଷା ସଞ୍ଚିତ ହେଲା। ଆପଣଙ୍କ ପୂରା ନାମ କ'ଣ?",
		MsgAskAge:           "ଦୟାକରି ଆପଣଙ୍କ ବୟସ (ବର୍ଷରେ) ଲେଖନ୍ତୁ।",
		MsgInvalidAge:       "ଦୟାକରି 1 ରୁ 120 ମଧ୍ୟରେ ସଠିକ୍ ବୟସ ଅଙ୍କରେ ଲେଖନ୍ତୁ (ଯେପରି 35)।",
		MsgGenderBody:       "ଦୟାକରି ଆପଣଙ୍କ ଲିଙ୍ଗ ବାଛନ୍ତୁ",
		MsgBtnMale:          "ପୁରୁଷ",
		MsgBtnFemale:        "ମହିଳା",
		MsgBtnOther:         "ଅନ୍ୟ",
		MsgAskLocation:      "ଦୟାକରି ଆପଣଙ୍କ ଲୋକେସନ ପଠାନ୍ତୁ, କିମ୍ବା ସହର ଓ ରାଜ୍ୟ (ଯେପରି ଭୁବନେଶ୍ୱର, ଓଡ଼ିଶା) କିମ୍ବା 6 ଅଙ୍କର ପିନ କୋଡ ଲେଖନ୍ତୁ।",
		MsgAskConditions:    `କୌଣସି ପୁରୁଣା ରୋଗ ଅଛି କି? (ଯେପରି ମଧୁମେହ, ଉଚ୍ଚ ରକ୍ତଚାପ)। ନ ଥିଲେ "କିଛି ନାହିଁ" ଲେଖନ୍ତୁ।`,
		MsgConsentBody:      "ବ୍ୟକ୍ତିଗତ ପରାମର୍ଶ ପାଇଁ ଆପଣଙ୍କ ସ୍ୱାସ୍ଥ୍ୟ ତଥ୍ୟ ସୁରକ୍ଷିତ ରଖିବାକୁ ଆପଣ ସହମତ କି?",
		MsgBtnAgree:         "ମୁଁ ସହମତ",
		MsgBtnDisagree:      "ମୁଁ ସହମତ ନୁହେଁ",
		MsgSetupComplete:    "ଧନ୍ୟବାଦ, ସେଟଅପ ସମ୍ପୂର୍ଣ୍ଣ। ଆପଣ ଯେକୌଣସି ସମୟରେ ସ୍ୱାସ୍ଥ୍ୟ ପ୍ରଶ୍ନ ପଚାରିପାରିବେ।",
		MsgConsentDeclined:  "ବୁଝିଲି। ପ୍ରୋଫାଇଲ ସଞ୍ଚିତ ହେଲା ନାହିଁ। ଆପଣ ତଥାପି ସାଧାରଣ ପ୍ରଶ୍ନ ପଚାରିପାରିବେ।",
		MsgChooseOption:     "ଦୟାକରି ଉପରୋକ୍ତ ବିକଳ୍ପ ମଧ୍ୟରୁ ଗୋଟିଏ ବାଛନ୍ତୁ।",
		MsgAnalyzing:        "ଆପଣଙ୍କ ପ୍ରଶ୍ନର ବିଶ୍ଳେଷଣ ଚାଲିଛି, ଦୟାକରି ଅପେକ୍ଷା କରନ୍ତୁ...",
		MsgPipelineError:    "କ୍ଷମା କରିବେ, ବର୍ତ୍ତମାନ ଆପଣଙ୍କ ପ୍ରଶ୍ନର ବିଶ୍ଳେଷଣ ହୋଇପାରିଲା ନାହିଁ। ଦୟାକରି ପୁଣି ପଠାନ୍ତୁ।",
		MsgResetDone:        "ଆପଣଙ୍କ ପ୍ରୋଫାଇଲ ହଟାଯାଇଛି। ପୁଣି ଆରମ୍ଭ କରିବାକୁ ଯେକୌଣସି ବାର୍ତ୍ତା ପଠାନ୍ତୁ।",
	},
	"ben_Beng": {
		MsgWelcome:         "স্বাস্থ্যসাথীতে স্বাগতম! আপনি কীভাবে শুরু করতে চান?",
		MsgAskName:         "দারুণ, ভাষা সংরক্ষিত হয়েছে। আপনার পুরো নাম কী?",
		MsgAskAge:          "অনুগ্রহ করে আপনার বয়স (বছরে) লিখুন।",
		MsgInvalidAge:      "অনুগ্রহ করে ১ থেকে ১২০ এর মধ্যে সঠিক বয়স সংখ্যায় লিখুন (যেমন 35)।",
		MsgGenderBody:      "অনুগ্রহ করে আপনার লিঙ্গ নির্বাচন করুন",
		MsgBtnMale:         "পুরুষ",
		MsgBtnFemale:       "মহিলা",
		MsgBtnOther:        "অন্যান্য",
		MsgAskConditions:   `কোনো দীর্ঘমেয়াদি রোগ আছে? (যেমন ডায়াবেটিস, উচ্চ রক্তচাপ)। না থাকলে "কিছু না" লিখুন।`,
		MsgSetupComplete:   "ধন্যবাদ, সেটআপ সম্পূর্ণ। আপনি যেকোনো সময় স্বাস্থ্য প্রশ্ন করতে পারেন।",
		MsgChooseOption:    "অনুগ্রহ করে উপরের বিকল্পগুলির একটি বেছে নিন।",
		MsgAnalyzing:       "আপনার প্রশ্ন বিশ্লেষণ করা হচ্ছে, অনুগ্রহ করে অপেক্ষা করুন...",
		MsgPipelineError:   "দুঃখিত, এখন আপনার প্রশ্ন বিশ্লেষণ করা যায়নি। অনুগ্রহ করে আবার পাঠান।",
		MsgResetDone:       "আপনার প্রোফাইল মুছে ফেলা হয়েছে। আবার শুরু করতে যেকোনো বার্তা পাঠান।",
		MsgConsentDeclined: "বুঝেছি। প্রোফাইল সংরক্ষণ করা হয়নি। আপনি তবুও সাধারণ প্রশ্ন করতে পারেন।",
	},
}

var builtinNoneWords = map[string][]string{
	"eng_Latn": {"none", "no", "nothing", "nil", "na", "n/a", "no conditions", "not any"},
	"hin_Deva": {"कोई नहीं", "कुछ नहीं", "नहीं", "नही", "koi nahi", "kuch nahi"},
	"ory_Orya": {"କିଛି ନାହିଁ", "ନାହିଁ", "kichhi nahin"},
	"ben_Beng": {"কিছু না", "কিছুই না", "নেই", "না", "kichu na"},
	"tel_Telu": {"ఏమీ లేదు", "లేదు"},
	"tam_Taml": {"எதுவும் இல்லை", "இல்லை"},
	"mar_Deva": {"काही नाही", "नाही"},
	"guj_Gujr": {"કંઈ નહીં", "ના"},
}

// ProfileContext renders the parts of a profile the analyzer should take into
// account.  Unknown attributes are omitted.
func ProfileContext(p *pkg.UserProfile) string {
	if p == nil {
		return ""
	}
	var lines []string
	if p.Age > 0 {
		lines = append(lines, fmt.Sprintf("Age: %d", p.Age))
	}
	if p.Gender != "" {
		lines = append(lines, "Gender: "+string(p.Gender))
	}
	if loc := describeLocation(p.Location); loc != "" {
		lines = append(lines, "Location: "+loc)
	}
	if len(p.ChronicConditions) > 0 {
		lines = append(lines, "Chronic conditions: "+strings.Join(p.ChronicConditions, ", "))
	} else if p.ChronicConditions != nil {
		lines = append(lines, "Chronic conditions: none reported")
	}
	return strings.Join(lines, "\n")
}

func describeLocation(l pkg.Location) string {
	var parts []string
	for _, s := range []string{l.Subdistrict, l.City, l.District, l.State} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if l.Pincode != "" {
		parts = append(parts, "PIN "+l.Pincode)
	}
	if len(parts) == 0 && l.Latitude != nil && l.Longitude != nil {
		return fmt.Sprintf("%.5f, %.5f", *l.Latitude, *l.Longitude)
	}
	return strings.Join(parts, ", ")
}
