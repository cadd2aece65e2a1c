package domain

// News is a submitted news item together with its on-chain history.
//
// The four history slices advance in lockstep: index i of each refers to the
// same submission. The Latest* scalars mirror the last element after every
// consistent write.
type News struct {
	ID                 string   `json:"_id,omitempty"`
	Language           string   `json:"news_language,omitempty" validate:"required"`
	Title              string   `json:"news_title,omitempty" validate:"required"`
	ShortDescription   string   `json:"news_short_description,omitempty"`
	Category           string   `json:"news_category,omitempty" validate:"required"`
	Tags               []string `json:"news_tags,omitempty" validate:"required"`
	Content            string   `json:"news_content,omitempty" validate:"required"`
	Authors            []string `json:"news_authors,omitempty" validate:"omitempty,dive,required"`
	Image              []string `json:"news_image,omitempty"`
	IsPublished        bool     `json:"is_news_published,omitempty"`
	PublishedLink      string   `json:"news_published_link,omitempty" validate:"required_if=IsPublished true"`
	PublishedTimestamp int64    `json:"published_timestamp,omitempty" validate:"required_if=IsPublished true"`

	ParentWalletAddress string `json:"news_published_parent_wallet_address,omitempty" validate:"omitempty,eth_addr"`
	LatestWalletAddress string `json:"news_published_latest_wallet_address,omitempty"`

	ParentPinataID      string `json:"news_parent_pinata_id,omitempty"`
	ParentPinataURI     string `json:"news_parent_pinata_uri,omitempty"`
	ParentTransactionID string `json:"news_parent_transaction_id,omitempty"`

	LatestPinataID      string `json:"news_latest_pinata_id,omitempty"`
	LatestPinataURI     string `json:"news_latest_pinata_uri,omitempty"`
	LatestTransactionID string `json:"news_latest_transaction_id,omitempty"`

	ChildIDs        []string `json:"news_child_mongo_ids,omitempty"`
	WalletAddresses []string `json:"news_published_wallet_addresses,omitempty"`
	PinataIDs       []string `json:"news_pinata_ids,omitempty"`
	PinataURIs      []string `json:"news_pinata_uris,omitempty"`
	TransactionIDs  []string `json:"news_transaction_ids,omitempty"`
}

// Submission is what one successful news publication yields.
type Submission struct {
	ContentID     string
	ContentURI    string
	TransactionID string
	EventData     []byte
}

// news document field names
const (
	FieldNewsLanguage = "news_language"
	FieldNewsAuthors  = "news_authors"

	FieldParentWallet        = "news_published_parent_wallet_address"
	FieldLatestWallet        = "news_published_latest_wallet_address"
	FieldParentPinataID      = "news_parent_pinata_id"
	FieldParentPinataURI     = "news_parent_pinata_uri"
	FieldParentTransactionID = "news_parent_transaction_id"
	FieldLatestPinataID      = "news_latest_pinata_id"
	FieldLatestPinataURI     = "news_latest_pinata_uri"
	FieldLatestTransactionID = "news_latest_transaction_id"

	FieldChildIDs        = "news_child_mongo_ids"
	FieldWalletAddresses = "news_published_wallet_addresses"
	FieldPinataIDs       = "news_pinata_ids"
	FieldPinataURIs      = "news_pinata_uris"
	FieldTransactionIDs  = "news_transaction_ids"

	FieldOrgCategory = "org_category"
)
