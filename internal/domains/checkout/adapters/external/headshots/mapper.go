package headshots

import (
	"strings"

	headshotclient "github.com/Apurer/headshot-checkout/internal/clients/http/headshots"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

// ToProduction converts the API production into the domain shape, keeping quantity order.
func ToProduction(p *headshotclient.Production) *domain.Production {
	if p == nil {
		return nil
	}
	quantities := make([]domain.ProductionQuantity, 0, len(p.ProductionQuantities))
	for _, q := range p.ProductionQuantities {
		quantities = append(quantities, domain.ProductionQuantity{
			ID:        string(q.ID),
			Amount:    q.Amount,
			PlusPrice: strings.TrimSpace(q.PlusPrice.String()),
		})
	}
	return &domain.Production{
		ID:            string(p.ID),
		Title:         strings.TrimSpace(p.Title),
		OverviewImage: p.OverviewImage,
		Quantities:    quantities,
	}
}

// ToCreateBody builds the draft-creation payload.
func ToCreateBody(req domain.HeadshotDraftRequest) headshotclient.CreateHeadshotJSONRequestBody {
	status := req.Status
	if status == "" {
		status = domain.HeadshotStatusDraft
	}
	return headshotclient.CreateHeadshotJSONRequestBody{
		Email:    req.Email,
		FileName: req.FileName,
		Quantity: req.QuantityID,
		Status:   string(status),
	}
}

// ToDraft converts the created headshot into the domain draft.
func ToDraft(h *headshotclient.Headshot) *domain.DraftHeadshot {
	if h == nil {
		return nil
	}
	return &domain.DraftHeadshot{
		ID:       string(h.ID),
		FileName: h.FileName,
		ImageURL: h.CloudinaryImageSecureURL,
		Status:   domain.HeadshotStatus(h.Status),
	}
}
