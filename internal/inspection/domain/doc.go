// Package domain defines the inspection entities collected during a field
// inspection: the session itself, the claim under inspection, sketched rooms
// and openings, recorded damages, photos, and estimate line items.
//
// Entities here are plain records. Structural and business-rule judgement
// over them lives in the gate, pricing, and export packages.
package domain
