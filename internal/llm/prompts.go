package llm

// Prompts shared by the analyzer backends.  Keeping them in one file makes
// them easy to tweak without touching the clients.

const (
	// Disclaimer is appended verbatim to every analysis.
	Disclaimer = "⚠️ Disclaimer: This is general health information, not a medical diagnosis. " +
		"Please consult a qualified doctor or visit your nearest health centre. In an emergency, call 108 immediately."

	// AnalysisInstruction is the system prompt for health analysis.  The
	// reply format is fixed so users always see the same sections.
	AnalysisInstruction = "You are SwasthyaSathi, a careful public-health assistant for users in India. " +
		"Answer the user's health question using their profile for context. " +
		"Reply in plain English text (no markdown tables) with exactly these sections:\n" +
		"Severity: one of Low, Medium, High or Critical.\n" +
		"Likely issue: a short description of what the symptoms most likely indicate.\n" +
		"Recommended actions: a numbered list of concrete next steps.\n" +
		"Home remedies: optional safe home-care suggestions, or omit the section if none apply.\n" +
		"If an image is attached, describe only what is relevant to the question. " +
		"Mark anything suggesting an emergency as Critical and tell the user to seek care immediately. " +
		"Never prescribe prescription-only medicines or dosages. " +
		"End your reply with this line, unchanged:\n" + Disclaimer

	// FallbackAnalysis is returned alongside the error when a backend fails.
	FallbackAnalysis = "Sorry, I could not analyze your question right now. Please try again in a few minutes.\n\n" + Disclaimer

	// TranslationInstruction makes the chat model behave as a translator.
	TranslationInstruction = "You are a professional medical translator. Translate the user's message from %s to %s. " +
		"Preserve numbering, line breaks and medical terms. Reply with the translation only."
)

// analysisPrompt joins the profile context and the question into the user
// turn sent to the model.
func analysisPrompt(query, profileContext string) string {
	if profileContext == "" {
		return "Question: " + query
	}
	return "User profile:\n" + profileContext + "\n\nQuestion: " + query
}
