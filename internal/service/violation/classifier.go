package violation

import (
	"fmt"
	"strings"

	"helmetwatch/internal/config"
	"helmetwatch/internal/dto"
	"helmetwatch/internal/model"
)

// Role is the meaning the classifier gives to a model class.
type Role int

const (
	RoleOther Role = iota
	RoleMotorcycle
	RoleNoHelmet
	RoleProperHelmet
	RoleWrongHelmet
)

// IsRider reports whether the role describes a motorcycle occupant.
func (r Role) IsRider() bool {
	return r == RoleNoHelmet || r == RoleProperHelmet || r == RoleWrongHelmet
}

// Classifier turns a frame's detections into a verdict. It holds no per-frame state.
type Classifier struct {
	maxAllowedRiders int
	roles            map[int]Role
	labels           []string
}

// NewClassifier builds a classifier from the class role mapping and label table.
func NewClassifier(maxAllowedRiders int, classes config.ClassRoles, labels []string) *Classifier {
	return &Classifier{
		maxAllowedRiders: maxAllowedRiders,
		roles: map[int]Role{
			classes.Motorcycle:   RoleMotorcycle,
			classes.NoHelmet:     RoleNoHelmet,
			classes.ProperHelmet: RoleProperHelmet,
			classes.WrongHelmet:  RoleWrongHelmet,
		},
		labels: labels,
	}
}

// FromConfig builds a classifier from the process configuration.
func FromConfig(cfg *config.Config) *Classifier {
	return NewClassifier(cfg.MaxAllowedRiders, cfg.Classes, cfg.ClassLabels)
}

// Role returns the role of a class id.
func (c *Classifier) Role(classID int) Role {
	if role, ok := c.roles[classID]; ok {
		return role
	}
	return RoleOther
}

// Label returns the human label of a class id.
func (c *Classifier) Label(classID int) string {
	if classID >= 0 && classID < len(c.labels) {
		return c.labels[classID]
	}
	return fmt.Sprintf("class%d", classID)
}

// Classify evaluates helmet checks first and overloading second; when both fire,
// overloading owns the label and the helmet label is kept in HelmetLabel.
// Among several helmet violations the most confident one names the verdict,
// ties going to the lower class id.
func (c *Classifier) Classify(detections []dto.DetectionResult) model.Verdict {
	var verdict model.Verdict

	var helmet *dto.DetectionResult
	for i := range detections {
		det := &detections[i]
		role := c.Role(det.ClassID)

		if role.IsRider() {
			verdict.RiderCount++
		}

		if role != RoleNoHelmet && role != RoleWrongHelmet {
			continue
		}
		if helmet == nil ||
			det.Confidence > helmet.Confidence ||
			(det.Confidence == helmet.Confidence && det.ClassID < helmet.ClassID) {
			helmet = det
		}
	}

	if helmet != nil {
		verdict.IsViolation = true
		verdict.Label = c.Label(helmet.ClassID)
		verdict.HelmetLabel = verdict.Label
		if c.Role(helmet.ClassID) == RoleNoHelmet {
			verdict.Kind = model.KindNoHelmet
		} else {
			verdict.Kind = model.KindWrongHelmet
		}
	}

	if verdict.RiderCount > c.maxAllowedRiders {
		verdict.IsViolation = true
		verdict.Kind = model.KindOverloading
		verdict.Label = OverloadingLabel(verdict.RiderCount)
	}

	return verdict
}

// OverloadingLabel names an overloading violation for the given rider count.
func OverloadingLabel(riders int) string {
	return fmt.Sprintf("overloading_%d_persons", riders)
}

// KindForLabel recovers the violation kind from a clip label. Labels that match
// no violation class yield KindNone.
func (c *Classifier) KindForLabel(label string) model.ViolationKind {
	if strings.HasPrefix(label, "overloading_") {
		return model.KindOverloading
	}
	for id, name := range c.labels {
		if !strings.EqualFold(name, label) {
			continue
		}
		switch c.Role(id) {
		case RoleNoHelmet:
			return model.KindNoHelmet
		case RoleWrongHelmet:
			return model.KindWrongHelmet
		}
	}
	return model.KindNone
}
