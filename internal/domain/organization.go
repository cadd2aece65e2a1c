package domain

// Organization is a registered media organisation.
type Organization struct {
	ID             string   `json:"_id,omitempty"`
	Name           string   `json:"org_name,omitempty" validate:"required"`
	LegalName      string   `json:"org_legal_name,omitempty" validate:"required"`
	LegalType      string   `json:"org_legal_type,omitempty" validate:"required,oneof=LLC 'Pvt. Ltd.' Ltd. OPC Proprietorship Unregistered Other"`
	Category       string   `json:"org_category,omitempty" validate:"required,oneof=local national"`
	Website        []string `json:"org_website,omitempty"`
	ContactEmails  []string `json:"org_contact_emails,omitempty" validate:"omitempty,dive,email"`
	ContactNumbers []string `json:"org_contact_numbers,omitempty"`
	Type           string   `json:"org_type,omitempty" validate:"required,oneof='news publisher' 'news agency' 'fact checker'"`
	Username       string   `json:"org_username,omitempty" validate:"required"`
	WalletAddress  string   `json:"org_wallet_address,omitempty" validate:"omitempty,eth_addr"`
	Image          string   `json:"image,omitempty"`

	TokenID       string `json:"org_token_id,omitempty"`
	TransactionID string `json:"org_transaction_id,omitempty"`
	PinataURI     string `json:"org_pinata_uri,omitempty"`
}

// Journalist is a registered journalist, optionally attached to an organisation.
type Journalist struct {
	ID            string   `json:"_id,omitempty"`
	FirstName     string   `json:"journalist_first_name,omitempty" validate:"required"`
	LastName      string   `json:"journalist_last_name,omitempty" validate:"required"`
	OrgID         string   `json:"org_id,omitempty"`
	Category      []string `json:"category,omitempty" validate:"required"`
	About         string   `json:"about_journalist,omitempty" validate:"required"`
	Email         string   `json:"journalist_email,omitempty" validate:"required,email"`
	Website       string   `json:"journalist_website,omitempty"`
	Contact       string   `json:"journalist_contact,omitempty"`
	Username      string   `json:"journalist_username,omitempty" validate:"required"`
	WalletAddress string   `json:"journalist_wallet_address,omitempty" validate:"omitempty,eth_addr"`
	Image         string   `json:"image,omitempty"`

	TokenID       string `json:"journalist_token_id,omitempty"`
	TransactionID string `json:"journalist_transaction_id,omitempty"`
	PinataURI     string `json:"journalist_pinata_uri,omitempty"`
}
