package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

// ViewKind names the descriptor a host should render for the current step.
type ViewKind string

const (
	ViewLoading     ViewKind = "loading"
	ViewQuantity    ViewKind = "quantity"
	ViewContactInfo ViewKind = "contact_info"
	// ViewNavigate is not renderable: the host must switch screens.
	ViewNavigate ViewKind = "navigate"
	ViewReview   ViewKind = "review"
)

// Action names the wizard operations a view wires its inputs to.
const (
	ActionSelectQuantity  = "select_quantity"
	ActionSetOrderDetails = "set_order_details"
	ActionSetField        = "set_field"
)

// PrimaryControl is the terminal action button shown next to Back.
type PrimaryControl string

const (
	ControlNext   PrimaryControl = "next"
	ControlPay    PrimaryControl = "pay"
	ControlFinish PrimaryControl = "finish"
)

// Controls describes the wizard navigation buttons.
type Controls struct {
	BackEnabled bool
	Primary     PrimaryControl
	Disabled    bool
}

// View is the descriptor returned by the step renderer.
type View struct {
	Kind          ViewKind
	Step          domain.Step
	Title         string
	OverviewImage string

	Quantities         []domain.ProductionQuantity
	SelectedQuantityID string
	OrderDetails       domain.OrderDetails
	Amount             int32
	Price              decimal.Decimal

	HasImage bool

	Navigation *domain.NavigationRequest

	FileName string
	ImageURL string
	Paid     bool

	Actions  []string
	Controls Controls
	Error    *domain.ErrorInfo
}

// SessionView is what every session operation hands back to adapters.
type SessionView struct {
	State domain.OrderState
	View  View
}
