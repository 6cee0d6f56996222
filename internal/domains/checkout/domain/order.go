package domain

import (
	"errors"
	"time"
)

// Step indexes the linear checkout wizard.
type Step int

const (
	StepQuantity Step = iota
	StepInfo
	// StepGallery never renders locally; entering it hands control to the gallery screen.
	StepGallery
	StepReview
	// StepFinished is reached only through a successful payment.
	StepFinished
)

// StepCount is the number of steps shown in the stepper.
const StepCount = 4

// LastStep is the final step before payment.
const LastStep = StepReview

func (s Step) String() string {
	switch s {
	case StepQuantity:
		return "quantity"
	case StepInfo:
		return "info"
	case StepGallery:
		return "gallery"
	case StepReview:
		return "review"
	case StepFinished:
		return "finished"
	default:
		return "unknown"
	}
}

var ErrPaidBeforeFinish = errors.New("paid order must be on the finished step")

// OrderDetails is the free-form order configuration edited on the quantity step.
type OrderDetails map[string]string

// Clone copies the map so snapshots do not share it.
func (d OrderDetails) Clone() OrderDetails {
	if d == nil {
		return nil
	}
	out := make(OrderDetails, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// OrderState is the in-progress order of one wizard session.
type OrderState struct {
	SessionID        string
	ProductionID     string
	Step             Step
	QuantityID       string
	OrderDetails     OrderDetails
	Email            string
	FileName         string
	UploadImageURL   string
	HasImage         bool
	Headshot         *DraftHeadshot
	Paid             bool
	PaymentReference string
	// PaymentPending is set between the processor's checkout-started and result callbacks.
	PaymentPending bool
	Loading        bool
	Completed      bool
	Generation     uint64
	OrphanedDrafts []string
	LastError      *ErrorInfo
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the state.
func (s OrderState) Clone() OrderState {
	clone := s
	clone.OrderDetails = s.OrderDetails.Clone()
	if s.Headshot != nil {
		h := *s.Headshot
		clone.Headshot = &h
	}
	clone.OrphanedDrafts = append([]string(nil), s.OrphanedDrafts...)
	if s.LastError != nil {
		e := *s.LastError
		clone.LastError = &e
	}
	return clone
}

// Validate enforces the cross-field invariants.
func (s OrderState) Validate() error {
	if s.ProductionID == "" {
		return ErrEmptyProductionID
	}
	if s.Paid && s.Step != StepFinished {
		return ErrPaidBeforeFinish
	}
	return nil
}

// Merge overlays the non-zero fields of partial onto s. Identity fields are kept.
func (s *OrderState) Merge(partial *OrderState) {
	if partial == nil {
		return
	}
	if partial.Step > StepQuantity && partial.Step <= StepFinished {
		s.Step = partial.Step
	}
	if partial.QuantityID != "" {
		s.QuantityID = partial.QuantityID
	}
	if len(partial.OrderDetails) > 0 {
		s.OrderDetails = partial.OrderDetails.Clone()
	}
	if partial.Email != "" {
		s.Email = partial.Email
	}
	if partial.FileName != "" {
		s.FileName = partial.FileName
	}
	if partial.UploadImageURL != "" {
		s.UploadImageURL = partial.UploadImageURL
	}
	if partial.HasImage {
		s.HasImage = true
	}
	if partial.Headshot != nil {
		h := *partial.Headshot
		s.Headshot = &h
	}
	if partial.Paid {
		s.Paid = true
		s.PaymentReference = partial.PaymentReference
		s.Step = StepFinished
	}
	if !s.Paid && s.Step > LastStep {
		s.Step = LastStep
	}
}

// Pricing resolves the display values for the current selection.
func (s OrderState) Pricing(production *Production) Pricing {
	return ResolvePricing(production, s.QuantityID)
}
