package usecase

import (
	"fmt"
	"time"

	"github.com/totegamma/xcheck/internal/domain"
)

type tokenAttribute struct {
	DisplayType string `json:"display_type,omitempty"`
	TraitType   string `json:"trait_type"`
	Value       any    `json:"value"`
}

// tokenMetadata is the document pinned for an identity certificate.
type tokenMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	ImageURL    string           `json:"image_url"`
	ExternalURL string           `json:"external_url"`
	Attributes  []tokenAttribute `json:"attributes"`
}

func organizationMetadata(org domain.Organization, policy Policy, now time.Time) tokenMetadata {
	image := org.Image
	if image == "" {
		image = policy.DefaultOrganizationImage
	}
	external := ""
	if len(org.Website) > 0 {
		external = org.Website[0]
	}
	return tokenMetadata{
		Name:        org.LegalName,
		Description: fmt.Sprintf("Name of the Organisation: %s with unique name of %s", org.Name, org.Username),
		Image:       image,
		ImageURL:    image,
		ExternalURL: external,
		Attributes: []tokenAttribute{
			{TraitType: "Name", Value: org.Name},
			{TraitType: "Legal Type", Value: org.LegalType},
			{TraitType: "Category", Value: org.Category},
			{TraitType: "Type", Value: org.Type},
			{DisplayType: "date", TraitType: "Organisation Joined Date", Value: now.Unix()},
		},
	}
}

func journalistMetadata(j domain.Journalist, policy Policy, now time.Time) tokenMetadata {
	image := j.Image
	if image == "" {
		image = policy.DefaultJournalistImage
	}
	return tokenMetadata{
		Name:        j.FirstName + " " + j.LastName,
		Description: fmt.Sprintf("Journalist %s %s from organization ID %s. About: %s", j.FirstName, j.LastName, j.OrgID, j.About),
		Image:       image,
		ImageURL:    image,
		ExternalURL: j.Website,
		Attributes: []tokenAttribute{
			{TraitType: "Name", Value: j.FirstName + j.LastName},
			{TraitType: "Category", Value: j.Category},
			{TraitType: "Email", Value: j.Email},
			{TraitType: "Contact", Value: j.Contact},
			{TraitType: "Username", Value: j.Username},
			{DisplayType: "date", TraitType: "Journalist Joined Date", Value: now.Unix()},
		},
	}
}
