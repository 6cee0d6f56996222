package mapper

import (
	"strings"
	"time"

	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

// OrderSeed carries a partially filled order handed over by the host at mount.
type OrderSeed struct {
	SessionID      string            `json:"sessionId,omitempty"`
	QuantityID     string            `json:"quantityId,omitempty"`
	OrderDetails   map[string]string `json:"orderDetails,omitempty"`
	Email          string            `json:"email,omitempty"`
	FileName       string            `json:"fileName,omitempty"`
	UploadImageURL string            `json:"uploadImageUrl,omitempty"`
	HasImage       bool              `json:"hasImage,omitempty"`
}

// StartSessionRequest opens a checkout for a production.
type StartSessionRequest struct {
	ProductionID string     `json:"productionId" binding:"required"`
	Order        *OrderSeed `json:"order,omitempty"`
}

type SelectQuantityRequest struct {
	QuantityID string `json:"quantityId" binding:"required"`
}

type OrderDetailsRequest struct {
	OrderDetails map[string]string `json:"orderDetails"`
}

type SetFieldRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// JumpToRequest selects an already visited step from the stepper.
type JumpToRequest struct {
	Step *int `json:"step" binding:"required"`
}

type PayRequest struct {
	Source string `json:"source" binding:"required"`
}

// CheckoutStartedRequest is posted by the payment widget once it holds a token.
type CheckoutStartedRequest struct {
	Token string `json:"token" binding:"required"`
}

// PaymentConfirmationRequest is posted by the processor after a successful charge.
type PaymentConfirmationRequest struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status"`
	Paid   bool   `json:"paid"`
}

type PaymentFailureRequest struct {
	Reason string `json:"reason"`
}

// Quantity is one pricing tier of the production.
type Quantity struct {
	ID        string `json:"id"`
	Amount    int32  `json:"amount"`
	PlusPrice string `json:"plusPrice"`
	Price     string `json:"price"`
}

type Navigation struct {
	Key          string `json:"key"`
	ProductionID string `json:"productionId,omitempty"`
}

type Controls struct {
	BackEnabled bool   `json:"backEnabled"`
	Primary     string `json:"primary"`
	Disabled    bool   `json:"disabled"`
}

type ErrorInfo struct {
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Headshot struct {
	ID       string `json:"id"`
	FileName string `json:"fileName,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Status   string `json:"status,omitempty"`
}

// View is the HTTP representation of the rendered step.
type View struct {
	Kind               string            `json:"kind"`
	Step               int               `json:"step"`
	Title              string            `json:"title,omitempty"`
	OverviewImage      string            `json:"overviewImage,omitempty"`
	Quantities         []Quantity        `json:"quantities,omitempty"`
	SelectedQuantityID string            `json:"selectedQuantityId,omitempty"`
	OrderDetails       map[string]string `json:"orderDetails,omitempty"`
	Amount             int32             `json:"amount"`
	Price              string            `json:"price"`
	HasImage           bool              `json:"hasImage"`
	Navigation         *Navigation       `json:"navigation,omitempty"`
	FileName           string            `json:"fileName,omitempty"`
	ImageURL           string            `json:"imageUrl,omitempty"`
	Paid               bool              `json:"paid"`
	Actions            []string          `json:"actions,omitempty"`
	Controls           Controls          `json:"controls"`
	Error              *ErrorInfo        `json:"error,omitempty"`
}

// Session is returned by every session endpoint.
type Session struct {
	SessionID        string            `json:"sessionId"`
	ProductionID     string            `json:"productionId"`
	Step             int               `json:"step"`
	StepName         string            `json:"stepName"`
	QuantityID       string            `json:"quantityId,omitempty"`
	OrderDetails     map[string]string `json:"orderDetails,omitempty"`
	Email            string            `json:"email,omitempty"`
	FileName         string            `json:"fileName,omitempty"`
	UploadImageURL   string            `json:"uploadImageUrl,omitempty"`
	HasImage         bool              `json:"hasImage"`
	Headshot         *Headshot         `json:"headshot,omitempty"`
	Paid             bool              `json:"paid"`
	PaymentReference string            `json:"paymentReference,omitempty"`
	PaymentPending   bool              `json:"paymentPending"`
	Loading          bool              `json:"loading"`
	Completed        bool              `json:"completed"`
	OrphanedDrafts   []string          `json:"orphanedDrafts,omitempty"`
	LastError        *ErrorInfo        `json:"lastError,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	View             View              `json:"view"`
}

// ToStartInput maps the request into the application input.
func ToStartInput(req StartSessionRequest) checkouttypes.StartSessionInput {
	input := checkouttypes.StartSessionInput{ProductionID: strings.TrimSpace(req.ProductionID)}
	if seed := req.Order; seed != nil {
		input.Partial = &domain.OrderState{
			SessionID:      strings.TrimSpace(seed.SessionID),
			QuantityID:     seed.QuantityID,
			OrderDetails:   domain.OrderDetails(seed.OrderDetails).Clone(),
			Email:          seed.Email,
			FileName:       seed.FileName,
			UploadImageURL: seed.UploadImageURL,
			HasImage:       seed.HasImage,
		}
	}
	return input
}

func ToPaymentConfirmation(req PaymentConfirmationRequest) domain.PaymentConfirmation {
	return domain.PaymentConfirmation{ID: req.ID, Status: req.Status, Paid: req.Paid}
}

// FromSessionView maps the application view into the transport model.
func FromSessionView(view *checkouttypes.SessionView) Session {
	if view == nil {
		return Session{}
	}
	state := view.State
	out := Session{
		SessionID:        state.SessionID,
		ProductionID:     state.ProductionID,
		Step:             int(state.Step),
		StepName:         state.Step.String(),
		QuantityID:       state.QuantityID,
		OrderDetails:     state.OrderDetails.Clone(),
		Email:            state.Email,
		FileName:         state.FileName,
		UploadImageURL:   state.UploadImageURL,
		HasImage:         state.HasImage,
		Paid:             state.Paid,
		PaymentReference: state.PaymentReference,
		PaymentPending:   state.PaymentPending,
		Loading:          state.Loading,
		Completed:        state.Completed,
		OrphanedDrafts:   append([]string(nil), state.OrphanedDrafts...),
		LastError:        fromErrorInfo(state.LastError),
		UpdatedAt:        state.UpdatedAt,
		View:             fromView(view.View),
	}
	if h := state.Headshot; h != nil {
		out.Headshot = &Headshot{ID: h.ID, FileName: h.FileName, ImageURL: h.ImageURL, Status: string(h.Status)}
	}
	return out
}

func fromView(v checkouttypes.View) View {
	out := View{
		Kind:               string(v.Kind),
		Step:               int(v.Step),
		Title:              v.Title,
		OverviewImage:      v.OverviewImage,
		SelectedQuantityID: v.SelectedQuantityID,
		OrderDetails:       v.OrderDetails.Clone(),
		Amount:             v.Amount,
		Price:              v.Price.StringFixed(2),
		HasImage:           v.HasImage,
		FileName:           v.FileName,
		ImageURL:           v.ImageURL,
		Paid:               v.Paid,
		Actions:            append([]string(nil), v.Actions...),
		Controls: Controls{
			BackEnabled: v.Controls.BackEnabled,
			Primary:     string(v.Controls.Primary),
			Disabled:    v.Controls.Disabled,
		},
		Error: fromErrorInfo(v.Error),
	}
	for _, q := range v.Quantities {
		out.Quantities = append(out.Quantities, Quantity{
			ID:        q.ID,
			Amount:    q.Amount,
			PlusPrice: q.PlusPrice,
			Price:     q.Price().StringFixed(2),
		})
	}
	if nav := v.Navigation; nav != nil {
		out.Navigation = &Navigation{Key: nav.Key, ProductionID: nav.ProductionID}
	}
	return out
}

func fromErrorInfo(info *domain.ErrorInfo) *ErrorInfo {
	if info == nil {
		return nil
	}
	return &ErrorInfo{Kind: string(info.Kind), Message: info.Message, OccurredAt: info.OccurredAt}
}
