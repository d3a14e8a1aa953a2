package repository

import (
	"context"
	"fmt"

	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/repository/dao"
)

type DonationDAO interface {
	Insert(ctx context.Context, donation dao.Donation) (dao.Donation, error)
	FindAll(ctx context.Context) ([]dao.Donation, error)
}

type DonationRepository struct {
	dao DonationDAO
}

func NewDonationRepository(dao DonationDAO) *DonationRepository {
	return &DonationRepository{
		dao: dao,
	}
}

func donationDaoToDomain(d dao.Donation) domain.Donation {
	return domain.Donation{
		ID:          d.ID,
		DonorName:   d.DonorName,
		AmountCents: d.AmountCents,
		Note:        d.Note,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *DonationRepository) Create(ctx context.Context, donation domain.Donation) (domain.Donation, error) {
	created, err := r.dao.Insert(ctx, dao.Donation{
		DonorName:   donation.DonorName,
		AmountCents: donation.AmountCents,
		Note:        donation.Note,
	})
	if err != nil {
		return domain.Donation{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return donationDaoToDomain(created), nil
}

func (r *DonationRepository) FindAll(ctx context.Context) ([]domain.Donation, error) {
	donations, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	out := make([]domain.Donation, 0, len(donations))
	for _, d := range donations {
		out = append(out, donationDaoToDomain(d))
	}

	return out, nil
}
