package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/request"
	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/response"
	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/service"
)

type DonationService interface {
	RecordDonation(ctx context.Context, donation domain.Donation) (domain.Donation, error)
	ListDonations(ctx context.Context) ([]domain.Donation, error)
	CreateCheckoutSession(amountCents int64, donorName string) (string, error)
}

type DonationHandler struct {
	svc DonationService
}

func NewDonationHandler(svc DonationService) *DonationHandler {
	return &DonationHandler{
		svc: svc,
	}
}

// HandleListDonations godoc
// @Summary      List the donation ledger
// @Tags         donations
// @Produce      json
// @Success      200 {array}  domain.Donation
// @Failure      500 {object} response.Err
// @Router       /donations [get]
func (h *DonationHandler) HandleListDonations(ctx *gin.Context) {
	donations, err := h.svc.ListDonations(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListDonations -> h.svc.ListDonations -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if donations == nil {
		donations = []domain.Donation{}
	}
	ctx.JSON(http.StatusOK, donations)
}

// HandleCreateDonation godoc
// @Summary      Record a donation in the ledger
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        request body request.DonationRequest true "request body"
// @Success      201 {object} domain.Donation
// @Failure      400 {object} response.Err
// @Failure      401 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /donations [post]
// @Security     AdminSecret
func (h *DonationHandler) HandleCreateDonation(ctx *gin.Context) {
	var req request.DonationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	donation, err := h.svc.RecordDonation(ctx.Request.Context(), domain.Donation{
		DonorName:   req.DonorName,
		AmountCents: req.AmountCents,
		Note:        req.Note,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidDonationAmount) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidDonationAmount))
			return
		}

		err = fmt.Errorf("v1.HandleCreateDonation -> h.svc.RecordDonation -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}

// HandleCreateCheckout godoc
// @Summary      Create a Stripe Checkout session for a donation
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        request body request.CheckoutRequest true "request body"
// @Success      200 {object} map[string]string
// @Failure      400 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /donations/checkout [post]
func (h *DonationHandler) HandleCreateCheckout(ctx *gin.Context) {
	var req request.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	url, err := h.svc.CreateCheckoutSession(req.AmountCents, req.DonorName)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDonationAmount) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidDonationAmount))
			return
		}

		err = fmt.Errorf("v1.HandleCreateCheckout -> h.svc.CreateCheckoutSession -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"url": url})
}
