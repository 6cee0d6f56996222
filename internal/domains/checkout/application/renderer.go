package application

import (
	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

// Render maps the current step and order to exactly one view descriptor. It never mutates state.
func Render(state domain.OrderState, production *domain.Production) checkouttypes.View {
	view := checkouttypes.View{
		Step:     state.Step,
		Controls: ControlsFor(state),
		Error:    state.LastError,
	}
	if production == nil {
		view.Kind = checkouttypes.ViewLoading
		return view
	}
	pricing := state.Pricing(production)
	view.Title = production.Title
	view.OverviewImage = production.OverviewImage
	view.SelectedQuantityID = state.QuantityID
	view.Amount = pricing.Amount
	view.Price = pricing.Price
	view.Paid = state.Paid

	if state.Completed {
		nav := domain.ListingNavigation(state.SessionID)
		view.Kind = checkouttypes.ViewNavigate
		view.Navigation = &nav
		return view
	}

	switch state.Step {
	case domain.StepQuantity:
		view.Kind = checkouttypes.ViewQuantity
		view.Quantities = append([]domain.ProductionQuantity(nil), production.Quantities...)
		view.OrderDetails = state.OrderDetails.Clone()
		view.Actions = []string{checkouttypes.ActionSelectQuantity, checkouttypes.ActionSetOrderDetails}
	case domain.StepInfo:
		view.Kind = checkouttypes.ViewContactInfo
		view.HasImage = state.HasImage
		view.Actions = []string{checkouttypes.ActionSetField}
	case domain.StepGallery:
		nav := domain.GalleryNavigation(state.SessionID, production.ID)
		view.Kind = checkouttypes.ViewNavigate
		view.Navigation = &nav
	default:
		view.Kind = checkouttypes.ViewReview
		if state.Headshot != nil {
			view.FileName = state.Headshot.FileName
			view.ImageURL = state.Headshot.ImageURL
		}
	}
	return view
}

// ControlsFor derives the Back and primary buttons for the order.
func ControlsFor(state domain.OrderState) checkouttypes.Controls {
	controls := checkouttypes.Controls{
		BackEnabled: state.Step > domain.StepQuantity && !state.Paid,
		Disabled:    state.Loading,
	}
	switch {
	case state.Paid:
		controls.Primary = checkouttypes.ControlFinish
	case state.Step >= domain.LastStep:
		controls.Primary = checkouttypes.ControlPay
	default:
		controls.Primary = checkouttypes.ControlNext
	}
	return controls
}
