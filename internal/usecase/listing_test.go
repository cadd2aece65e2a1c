package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/xcheck/internal/domain"
)

func TestListingOrganizations(t *testing.T) {
	store := newMemStore()
	store.seed(domain.CollectionOrganizations, newsA, domain.Organization{Name: "a", Category: "Print"})
	store.seed(domain.CollectionOrganizations, newsB, domain.Organization{Name: "b", Category: "Digital"})
	store.seed(domain.CollectionOrganizations, newsC, domain.Organization{Name: "c", Category: "Print"})
	uc := NewListingUsecase(store)

	all, err := uc.Organizations(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newsC, all[0].ID)
	assert.Equal(t, newsA, all[2].ID)

	printOrgs, err := uc.Organizations(context.Background(), "Print")
	require.NoError(t, err)
	require.Len(t, printOrgs, 2)
	assert.Equal(t, "c", printOrgs[0].Name)
	assert.Equal(t, "a", printOrgs[1].Name)
}

func TestListingNewsByLanguage(t *testing.T) {
	store := newMemStore()
	store.seed(domain.CollectionNews, newsA, domain.News{Language: "en"})
	store.seed(domain.CollectionNews, newsB, domain.News{Language: "hi"})
	uc := NewListingUsecase(store)

	news, err := uc.News(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, newsB, news[0].ID)

	none, err := uc.News(context.Background(), "fr")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListingJournalistsEmpty(t *testing.T) {
	uc := NewListingUsecase(newMemStore())

	journalists, err := uc.Journalists(context.Background())
	require.NoError(t, err)
	assert.Empty(t, journalists)
}
