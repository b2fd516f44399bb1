package model

// ViolationKind classifies what a verdict is about.
type ViolationKind string

const (
	KindNone        ViolationKind = ""
	KindNoHelmet    ViolationKind = "no_helmet"
	KindWrongHelmet ViolationKind = "wrong_helmet"
	KindOverloading ViolationKind = "overloading"
)

// Verdict is the per-frame violation decision.
type Verdict struct {
	IsViolation bool          `json:"is_violation"`
	Kind        ViolationKind `json:"kind"`
	Label       string        `json:"label"`
	RiderCount  int           `json:"rider_count"`
	HelmetLabel string        `json:"helmet_label,omitempty"` // Set when a helmet violation was seen, even if overloading took the label
}
