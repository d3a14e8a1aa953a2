package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"

	"github.com/gatherhub/gatherhub-api/internal/config"
	"github.com/gatherhub/gatherhub-api/internal/domain"
)

var ErrInvalidDonationAmount = errors.New("donation amount must be positive")

type DonationRepository interface {
	Create(ctx context.Context, donation domain.Donation) (domain.Donation, error)
	FindAll(ctx context.Context) ([]domain.Donation, error)
}

type DonationService struct {
	repo DonationRepository
	conf *config.StripeConfig
}

func NewDonationService(repo DonationRepository, conf *config.StripeConfig) *DonationService {
	if conf.SecretKey != "" {
		stripe.Key = conf.SecretKey
	}

	return &DonationService{
		repo: repo,
		conf: conf,
	}
}

func (s *DonationService) RecordDonation(ctx context.Context, donation domain.Donation) (domain.Donation, error) {
	if donation.AmountCents <= 0 {
		return domain.Donation{}, ErrInvalidDonationAmount
	}

	created, err := s.repo.Create(ctx, donation)
	if err != nil {
		return domain.Donation{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *DonationService) ListDonations(ctx context.Context) ([]domain.Donation, error) {
	donations, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return donations, nil
}

// CreateCheckoutSession opens a Stripe Checkout session for a donation and
// returns its redirect URL. The ledger row is written by the admin once the
// payment clears; this endpoint only initiates payment.
func (s *DonationService) CreateCheckoutSession(amountCents int64, donorName string) (string, error) {
	if amountCents <= 0 {
		return "", ErrInvalidDonationAmount
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Community donation"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.conf.SuccessURL),
		CancelURL:  stripe.String(s.conf.CancelURL),
	}
	if donorName != "" {
		params.AddMetadata("donor_name", donorName)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("session.New -> %w", err)
	}

	return sess.URL, nil
}
