package domain

// PhotoAnalysis holds the AI analysis result attached to a photo. The
// analysis pipeline itself is an external collaborator; only its output
// shape matters here.
type PhotoAnalysis struct {
	MatchConfidence float64
	DamageHints     []string
}

// Photo is a captured inspection photo, optionally tied to a room and to a
// requested shot from the photo checklist.
type Photo struct {
	ID            string
	SessionID     string
	RoomID        string
	RequestedShot string
	// Matched records human confirmation that the photo satisfies the
	// requested shot. Analysis confidence never sets this on its own.
	Matched  bool
	Analysis *PhotoAnalysis // nil until the analysis pipeline has run
}
