package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

func newLoadedWizard(t *testing.T, h *harness, opts ...Option) *Wizard {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	w := NewWizard("s1", "p1", h.deps(), opts...)
	require.NoError(t, w.Initialize(context.Background(), nil))
	return w
}

// advanceToReview walks a fresh wizard to the review step with a draft.
func advanceToReview(t *testing.T, w *Wizard) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SelectQuantity("q1"))
	require.NoError(t, w.Advance(ctx))
	require.NoError(t, w.SetField("email", "ada@example.com"))
	require.NoError(t, w.SetField("fileName", "ada.jpg"))
	require.NoError(t, w.Advance(ctx))
	require.NoError(t, w.Advance(ctx))
	require.Equal(t, domain.StepReview, w.Snapshot().Step)
}

func TestInitialize_LoadsProduction(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)

	view := w.View()
	require.Equal(t, checkouttypes.ViewQuantity, view.View.Kind)
	require.Equal(t, "Studio Headshots", view.View.Title)
	require.Len(t, view.View.Quantities, 2)
	require.False(t, view.State.Loading)
	require.Equal(t, 1, h.productions.fetches)
}

func TestInitialize_MergesPartialOrder(t *testing.T) {
	h := newHarness()
	w := NewWizard("s1", "p1", h.deps())

	err := w.Initialize(context.Background(), &domain.OrderState{
		SessionID:  "ignored",
		Step:       domain.StepInfo,
		QuantityID: "q2",
		Email:      "ada@example.com",
	})
	require.NoError(t, err)

	state := w.Snapshot()
	require.Equal(t, "s1", state.SessionID)
	require.Equal(t, domain.StepInfo, state.Step)
	require.Equal(t, "q2", state.QuantityID)
	require.Equal(t, int32(16), w.View().View.Amount)
}

func TestInitialize_FetchFailureClearsLoading(t *testing.T) {
	h := newHarness()
	h.productions.fetchErr = errGateway
	w := NewWizard("s1", "p1", h.deps(), WithClock(fixedClock))

	err := w.Initialize(context.Background(), nil)
	require.ErrorIs(t, err, errGateway)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.ErrorKindFetchFailed, kind)

	view := w.View()
	require.Equal(t, checkouttypes.ViewLoading, view.View.Kind)
	require.False(t, view.State.Loading)
	require.NotNil(t, view.View.Error)
	require.Equal(t, fixedNow, view.View.Error.OccurredAt)

	h.productions.fetchErr = nil
	require.NoError(t, w.Initialize(context.Background(), nil))
	require.Equal(t, checkouttypes.ViewQuantity, w.View().View.Kind)
	require.Nil(t, w.Snapshot().LastError)
}

func TestAdvance_BeforeLoadIsRejected(t *testing.T) {
	h := newHarness()
	w := NewWizard("s1", "p1", h.deps())
	require.ErrorIs(t, w.Advance(context.Background()), ErrNotLoaded)
}

func TestAdvance_FromQuantityPersistsWithoutGatewayCalls(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)

	require.NoError(t, w.Advance(context.Background()))

	state := w.Snapshot()
	require.Equal(t, domain.StepInfo, state.Step)
	require.Equal(t, 0, h.productions.createCount())
	require.Empty(t, h.navigator.keys())
	require.Equal(t, 1, h.store.saveCount())
	require.Equal(t, checkouttypes.ViewContactInfo, w.View().View.Kind)
}

func TestAdvance_FromInfoCreatesExactlyOneDraft(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	ctx := context.Background()
	require.NoError(t, w.SelectQuantity("q1"))
	require.NoError(t, w.Advance(ctx))
	require.NoError(t, w.SetField("email", "ada@example.com"))
	require.NoError(t, w.SetField("file_name", "ada.jpg"))

	require.NoError(t, w.Advance(ctx))

	require.Equal(t, 1, h.productions.createCount())
	req := h.productions.creates[0]
	require.Equal(t, domain.HeadshotDraftRequest{
		Email:      "ada@example.com",
		FileName:   "ada.jpg",
		QuantityID: "q1",
		Status:     domain.HeadshotStatusDraft,
	}, req)

	state := w.Snapshot()
	require.Equal(t, domain.StepGallery, state.Step)
	require.NotNil(t, state.Headshot)
	require.Equal(t, "h1", state.Headshot.ID)
	require.False(t, state.Loading)

	require.Equal(t, []domain.NavigationRequest{domain.GalleryNavigation("s1", "p1")}, h.navigator.requests)
	view := w.View().View
	require.Equal(t, checkouttypes.ViewNavigate, view.Kind)
	require.Equal(t, domain.ScreenImageMap, view.Navigation.Key)
}

func TestAdvance_DraftCreateFailureLeavesStep(t *testing.T) {
	h := newHarness()
	h.productions.createErr = errGateway
	w := newLoadedWizard(t, h)
	ctx := context.Background()
	require.NoError(t, w.Advance(ctx))

	err := w.Advance(ctx)
	require.ErrorIs(t, err, errGateway)
	kind, _ := KindOf(err)
	require.Equal(t, domain.ErrorKindDraftCreateFailed, kind)

	state := w.Snapshot()
	require.Equal(t, domain.StepInfo, state.Step)
	require.Nil(t, state.Headshot)
	require.False(t, state.Loading)
	require.Equal(t, domain.ErrorKindDraftCreateFailed, state.LastError.Kind)
	require.Empty(t, h.navigator.keys())
	require.False(t, w.View().View.Controls.Disabled)
}

func TestAdvance_AtReviewRequiresPayment(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)

	require.ErrorIs(t, w.Advance(context.Background()), ErrPaymentRequired)
	require.Equal(t, domain.StepReview, w.Snapshot().Step)
	require.Equal(t, checkouttypes.ControlPay, w.View().View.Controls.Primary)
}

func TestAdvance_WhenPaidNavigatesAway(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	require.NoError(t, w.Pay(context.Background(), "src_visa"))
	before := w.Snapshot().Step

	require.NoError(t, w.Advance(context.Background()))

	state := w.Snapshot()
	require.Equal(t, before, state.Step)
	require.True(t, state.Completed)
	require.Equal(t, []string{domain.ScreenImageMap, domain.ScreenProductions}, h.navigator.keys())
	view := w.View().View
	require.Equal(t, checkouttypes.ViewNavigate, view.Kind)
	require.Equal(t, domain.ScreenProductions, view.Navigation.Key)
}

func TestRetreat_AtStartIsNoop(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)

	require.NoError(t, w.Retreat(context.Background()))
	require.Equal(t, domain.StepQuantity, w.Snapshot().Step)
	require.Equal(t, 0, h.store.saveCount())
	require.False(t, w.View().View.Controls.BackEnabled)
}

func TestRetreat_ToInfoDeletesDraftOnce(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()

	require.NoError(t, w.Retreat(ctx))
	require.Equal(t, domain.StepGallery, w.Snapshot().Step)
	require.Empty(t, h.productions.deleted())

	require.NoError(t, w.Retreat(ctx))
	state := w.Snapshot()
	require.Equal(t, domain.StepInfo, state.Step)
	require.Nil(t, state.Headshot)
	require.Equal(t, []string{"h1"}, h.productions.deleted())

	// Entering the gallery again on the way back emitted a second request.
	require.Equal(t, []string{domain.ScreenImageMap, domain.ScreenImageMap}, h.navigator.keys())
}

func TestRetreat_ToInfoWithoutDraftSkipsDelete(t *testing.T) {
	h := newHarness()
	w := NewWizard("s1", "p1", h.deps())
	require.NoError(t, w.Initialize(context.Background(), &domain.OrderState{Step: domain.StepGallery}))

	require.NoError(t, w.Retreat(context.Background()))
	require.Equal(t, domain.StepInfo, w.Snapshot().Step)
	require.Empty(t, h.productions.deleted())
}

func TestRetreat_DeleteFailureRecordsOrphan(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	ctx := context.Background()
	require.NoError(t, w.Advance(ctx))
	require.NoError(t, w.Advance(ctx))
	h.productions.deleteErr = errGateway

	err := w.Retreat(ctx)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.ErrorKindDraftDeleteFailed, kind)

	state := w.Snapshot()
	require.Equal(t, domain.StepInfo, state.Step)
	require.Nil(t, state.Headshot)
	require.Equal(t, []string{"h1"}, state.OrphanedDrafts)
	require.False(t, state.Loading)
}

func TestRetreat_WhenPaidIsRejected(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	require.NoError(t, w.Pay(context.Background(), "src_visa"))

	require.ErrorIs(t, w.Retreat(context.Background()), ErrAlreadyPaid)
	require.ErrorIs(t, w.ResetToStart(context.Background()), ErrAlreadyPaid)
	require.False(t, w.View().View.Controls.BackEnabled)
}

func TestResetToStart_ReturnsToQuantity(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)

	require.NoError(t, w.ResetToStart(context.Background()))
	state := w.Snapshot()
	require.Equal(t, domain.StepQuantity, state.Step)
	require.NotNil(t, state.Headshot)
}

func TestSetField_AcceptsKnownNames(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)

	require.NoError(t, w.SetField("email", "not-an-email"))
	require.NoError(t, w.SetField("uploadImageUrl", "https://cdn.example/raw.jpg"))
	require.NoError(t, w.SetField("has_image", "true"))
	require.ErrorIs(t, w.SetField("hasImage", "maybe"), ErrInvalidInput)
	require.ErrorIs(t, w.SetField("phone", "555"), ErrUnknownField)

	state := w.Snapshot()
	require.Equal(t, "not-an-email", state.Email)
	require.Equal(t, "https://cdn.example/raw.jpg", state.UploadImageURL)
	require.True(t, state.HasImage)
}

func TestSetOrderDetails_CopiesInput(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	details := domain.OrderDetails{"background": "grey"}

	require.NoError(t, w.SetOrderDetails(details))
	details["background"] = "white"

	require.Equal(t, "grey", w.Snapshot().OrderDetails["background"])
}

func TestPay_ChargesSelectedPrice(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h, WithCurrency("EUR"))
	advanceToReview(t, w)
	savesBefore := h.store.saveCount()

	require.NoError(t, w.Pay(context.Background(), "src_visa"))

	require.Len(t, h.payments.requests, 1)
	req := h.payments.requests[0]
	require.True(t, decimal.RequireFromString("20").Equal(req.Amount))
	require.Equal(t, "eur", req.Currency)
	require.Equal(t, "h1", req.HeadshotID)
	require.Equal(t, "src_visa", req.Source)
	require.Equal(t, []domain.PaymentToken{{ID: "tok_1"}}, h.payments.tokens)

	state := w.Snapshot()
	require.True(t, state.Paid)
	require.Equal(t, domain.StepFinished, state.Step)
	require.Equal(t, "ch_1", state.PaymentReference)
	require.False(t, state.Loading)
	require.NoError(t, state.Validate())
	// checkout started, then payment succeeded
	require.Equal(t, savesBefore+2, h.store.saveCount())
	require.True(t, h.store.saves[savesBefore].Loading)

	view := w.View().View
	require.Equal(t, checkouttypes.ControlFinish, view.Controls.Primary)
	require.True(t, view.Paid)
}

func TestPay_FailuresLeaveOrderUnpaid(t *testing.T) {
	cases := map[string]func(*fakePayments){
		"tokenize": func(p *fakePayments) { p.tokenizeErr = errGateway },
		"confirm":  func(p *fakePayments) { p.confirmErr = errGateway },
		"declined": func(p *fakePayments) {
			p.confirmation = &domain.PaymentConfirmation{ID: "ch_2", Status: "declined"}
		},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			setup(h.payments)
			w := newLoadedWizard(t, h)
			advanceToReview(t, w)

			err := w.Pay(context.Background(), "src_visa")
			kind, ok := KindOf(err)
			require.True(t, ok)
			require.Equal(t, domain.ErrorKindPaymentFailed, kind)

			state := w.Snapshot()
			require.False(t, state.Paid)
			require.False(t, state.Loading)
			require.Equal(t, domain.StepReview, state.Step)
		})
	}
}

func TestPay_OutsideReviewIsRejected(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	require.ErrorIs(t, w.Pay(context.Background(), "src"), ErrInvalidStep)

	w2 := NewWizard("s2", "p1", h.deps())
	require.NoError(t, w2.Initialize(context.Background(), &domain.OrderState{Step: domain.StepReview}))
	require.ErrorIs(t, w2.Pay(context.Background(), "src"), ErrMissingDraft)
	require.Empty(t, h.payments.requests)
}

func TestPaymentCallbacks(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()

	require.NoError(t, w.CheckoutStarted(ctx, domain.PaymentToken{ID: "tok_9"}))
	require.True(t, w.Snapshot().Loading)
	require.True(t, w.View().View.Controls.Disabled)

	require.NoError(t, w.PaymentSucceeded(ctx, domain.PaymentConfirmation{ID: "ch_9", Paid: true}))
	state := w.Snapshot()
	require.False(t, state.Loading)
	require.True(t, state.Paid)
	require.Equal(t, "ch_9", state.PaymentReference)
	require.Equal(t, domain.StepFinished, state.Step)

	require.ErrorIs(t, w.PaymentSucceeded(ctx, domain.PaymentConfirmation{ID: "ch_10"}), ErrAlreadyPaid)
}

func TestPaymentFailedCallback(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()
	require.NoError(t, w.CheckoutStarted(ctx, domain.PaymentToken{ID: "tok_9"}))

	err := w.PaymentFailed(ctx, "card declined")
	kind, _ := KindOf(err)
	require.Equal(t, domain.ErrorKindPaymentFailed, kind)

	state := w.Snapshot()
	require.False(t, state.Loading)
	require.False(t, state.Paid)
	require.Equal(t, "card declined", state.LastError.Message)
}

func TestWizard_BusyWhileGatewayCallOutstanding(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	ctx := context.Background()
	require.NoError(t, w.Advance(ctx))

	h.productions.block = make(chan struct{})
	h.productions.started = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- w.Advance(ctx) }()
	<-h.productions.started

	assert.ErrorIs(t, w.Advance(ctx), ErrBusy)
	assert.ErrorIs(t, w.Retreat(ctx), ErrBusy)
	assert.ErrorIs(t, w.SetField("email", "x"), ErrBusy)
	assert.True(t, w.View().View.Controls.Disabled)

	close(h.productions.block)
	require.NoError(t, <-done)
	require.Equal(t, 1, h.productions.createCount())
	require.Equal(t, domain.StepGallery, w.Snapshot().Step)
}

func TestWizard_CloseDropsLateDraft(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	ctx := context.Background()
	require.NoError(t, w.Advance(ctx))
	genBefore := w.Snapshot().Generation

	h.productions.block = make(chan struct{})
	h.productions.started = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- w.Advance(ctx) }()
	<-h.productions.started

	w.Close()
	close(h.productions.block)

	require.ErrorIs(t, <-done, ErrClosed)
	state := w.Snapshot()
	require.Equal(t, domain.StepInfo, state.Step)
	require.Nil(t, state.Headshot)
	require.Greater(t, state.Generation, genBefore)
	require.Equal(t, []string{"h1"}, h.productions.deleted())
	require.Empty(t, h.navigator.keys())
	require.ErrorIs(t, w.Advance(ctx), ErrClosed)
}

func TestWizard_PersistFailureDoesNotBlockTransition(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	deps.Store = failingStore{fakeStore: h.store}
	w := NewWizard("s1", "p1", deps)
	require.NoError(t, w.Initialize(context.Background(), nil))

	require.NoError(t, w.Advance(context.Background()))
	require.Equal(t, domain.StepInfo, w.Snapshot().Step)
}

type failingStore struct {
	*fakeStore
}

func (failingStore) Save(context.Context, domain.OrderState) error {
	return errors.New("disk full")
}

func TestCheckoutStarted_LocksOrderUntilProcessorAnswers(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()

	require.NoError(t, w.CheckoutStarted(ctx, domain.PaymentToken{ID: "tok_9"}))
	require.True(t, w.Snapshot().PaymentPending)
	require.NoError(t, w.CheckoutStarted(ctx, domain.PaymentToken{ID: "tok_9"}))

	assert.ErrorIs(t, w.Retreat(ctx), ErrPaymentPending)
	assert.ErrorIs(t, w.JumpTo(ctx, domain.StepQuantity), ErrPaymentPending)
	assert.ErrorIs(t, w.ResetToStart(ctx), ErrPaymentPending)
	assert.ErrorIs(t, w.SetField("email", "x"), ErrPaymentPending)
	assert.ErrorIs(t, w.SelectQuantity("q2"), ErrPaymentPending)
	assert.ErrorIs(t, w.Advance(ctx), ErrPaymentPending)
	assert.ErrorIs(t, w.Pay(ctx, "src_visa"), ErrPaymentPending)
	require.Empty(t, h.productions.deleted())
	require.Empty(t, h.payments.requests)

	require.NoError(t, w.PaymentSucceeded(ctx, domain.PaymentConfirmation{ID: "ch_9", Paid: true}))
	state := w.Snapshot()
	require.True(t, state.Paid)
	require.False(t, state.PaymentPending)
	require.Equal(t, "h1", state.Headshot.ID)
	require.Equal(t, "ch_9", state.PaymentReference)
}

func TestPaymentFailed_ReleasesPendingLock(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()
	require.NoError(t, w.CheckoutStarted(ctx, domain.PaymentToken{ID: "tok_9"}))

	_ = w.PaymentFailed(ctx, "card declined")

	state := w.Snapshot()
	require.False(t, state.PaymentPending)
	require.False(t, state.Loading)
	require.NoError(t, w.Retreat(ctx))
	require.Equal(t, domain.StepGallery, w.Snapshot().Step)
}

func TestCheckoutStarted_RequiresDraft(t *testing.T) {
	h := newHarness()
	w := NewWizard("s1", "p1", h.deps())
	require.NoError(t, w.Initialize(context.Background(), &domain.OrderState{Step: domain.StepReview}))

	require.ErrorIs(t, w.CheckoutStarted(context.Background(), domain.PaymentToken{ID: "tok_9"}), ErrMissingDraft)
	require.False(t, w.Snapshot().PaymentPending)
}

func TestPay_RetryAfterDeclineUsesNewToken(t *testing.T) {
	h := newHarness()
	h.payments.confirmErr = errors.New("card declined")
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()

	_, ok := KindOf(w.Pay(ctx, "src_expired"))
	require.True(t, ok)
	h.payments.confirmErr = nil
	require.NoError(t, w.Pay(ctx, "src_visa"))

	require.Equal(t, []domain.PaymentToken{{ID: "tok_1"}, {ID: "tok_2"}}, h.payments.tokens)
	require.True(t, w.Snapshot().Paid)
}

func TestJumpTo_EarlierStepDeletesDraft(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)
	ctx := context.Background()

	require.NoError(t, w.JumpTo(ctx, domain.StepQuantity))

	state := w.Snapshot()
	require.Equal(t, domain.StepQuantity, state.Step)
	require.Nil(t, state.Headshot)
	require.Equal(t, []string{"h1"}, h.productions.deleted())
	require.Equal(t, checkouttypes.ViewQuantity, w.View().View.Kind)
}

func TestJumpTo_GalleryReopensImageMap(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	advanceToReview(t, w)

	require.NoError(t, w.JumpTo(context.Background(), domain.StepGallery))

	require.Equal(t, domain.StepGallery, w.Snapshot().Step)
	require.NotNil(t, w.Snapshot().Headshot)
	require.Empty(t, h.productions.deleted())
	require.Equal(t, []string{domain.ScreenImageMap, domain.ScreenImageMap}, h.navigator.keys())
}

func TestJumpTo_Guards(t *testing.T) {
	h := newHarness()
	w := newLoadedWizard(t, h)
	ctx := context.Background()
	require.NoError(t, w.Advance(ctx))
	saves := h.store.saveCount()

	require.ErrorIs(t, w.JumpTo(ctx, domain.StepReview), ErrInvalidStep)
	require.ErrorIs(t, w.JumpTo(ctx, domain.Step(-1)), ErrInvalidStep)
	require.NoError(t, w.JumpTo(ctx, domain.StepInfo))
	require.Equal(t, saves, h.store.saveCount())

	paid := newLoadedWizard(t, newHarness())
	advanceToReview(t, paid)
	require.NoError(t, paid.Pay(ctx, "src_visa"))
	require.ErrorIs(t, paid.JumpTo(ctx, domain.StepInfo), ErrAlreadyPaid)
}

func TestRestore_KeepsPendingPayment(t *testing.T) {
	h := newHarness()
	w := NewWizard("s1", "p1", h.deps())
	w.restore(domain.OrderState{
		SessionID: "s1", ProductionID: "p1", Step: domain.StepReview,
		Headshot: &domain.DraftHeadshot{ID: "h4"}, PaymentPending: true,
	})
	ctx := context.Background()
	require.NoError(t, w.Initialize(ctx, nil))

	require.True(t, w.Snapshot().Loading)
	require.ErrorIs(t, w.Retreat(ctx), ErrPaymentPending)
	require.NoError(t, w.PaymentSucceeded(ctx, domain.PaymentConfirmation{ID: "ch_4", Paid: true}))
	require.False(t, w.Snapshot().Loading)
}

func TestGatewayNotConfigured(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	deps.Payments = nil
	w := NewWizard("s1", "p1", deps)
	require.NoError(t, w.Initialize(context.Background(), nil))
	advanceToReview(t, w)

	require.ErrorIs(t, w.Pay(context.Background(), "src_visa"), ErrGatewayUnavailable)
}
