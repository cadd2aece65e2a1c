package usecase

import (
	"context"

	"github.com/totegamma/xcheck/internal/domain"
)

// ListingUsecase serves the read-only listings, newest first.
type ListingUsecase struct {
	store RecordStore
}

func NewListingUsecase(store RecordStore) *ListingUsecase {
	return &ListingUsecase{store: store}
}

// Organizations lists organisations, filtered by category when non-empty.
func (uc *ListingUsecase) Organizations(ctx context.Context, category string) ([]domain.Organization, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Listing.Organizations")
	defer span.End()

	filter := domain.Fields{}
	if category != "" {
		filter[domain.FieldOrgCategory] = category
	}

	orgs := []domain.Organization{}
	if err := uc.store.List(ctx, domain.CollectionOrganizations, filter, &orgs); err != nil {
		span.RecordError(err)
		return nil, domain.NewError(domain.KindPersistence, "list organizations", err)
	}
	return orgs, nil
}

func (uc *ListingUsecase) Journalists(ctx context.Context) ([]domain.Journalist, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Listing.Journalists")
	defer span.End()

	journalists := []domain.Journalist{}
	if err := uc.store.List(ctx, domain.CollectionJournalists, domain.Fields{}, &journalists); err != nil {
		span.RecordError(err)
		return nil, domain.NewError(domain.KindPersistence, "list journalists", err)
	}
	return journalists, nil
}

// News lists news, filtered by language when non-empty.
func (uc *ListingUsecase) News(ctx context.Context, language string) ([]domain.News, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Listing.News")
	defer span.End()

	filter := domain.Fields{}
	if language != "" {
		filter[domain.FieldNewsLanguage] = language
	}

	news := []domain.News{}
	if err := uc.store.List(ctx, domain.CollectionNews, filter, &news); err != nil {
		span.RecordError(err)
		return nil, domain.NewError(domain.KindPersistence, "list news", err)
	}
	return news, nil
}
