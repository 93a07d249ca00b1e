package analyzers

// Built-in analyzer set. IDs are stable; profiles reference them by id.

// Clarity flags confusing, ambiguous, or structurally broken writing.
func Clarity() *Prompted {
	return NewPrompted("clarity", "editorial", 10, `Flag passages that are hard to follow: ambiguous pronouns, run-on sentences, undefined jargon, contradictory statements, and broken document structure. Severity high only when the reader would take away a wrong meaning.`)
}

// Compliance flags content that conflicts with the supplied house policy.
func Compliance() *Prompted {
	return NewPrompted("compliance", "policy", 20, `Flag claims, phrasing, or omissions that conflict with the house policy text. Cite the conflicting passage. Severity high for outright policy violations, medium for statements that need legal or compliance sign-off, low for style-guide deviations.`)
}
