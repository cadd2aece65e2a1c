package domain

import "regexp"

// Collection names a logical record collection.
type Collection string

const (
	CollectionOrganizations Collection = "organizations"
	CollectionJournalists   Collection = "journalists"
	CollectionNews          Collection = "news"
	CollectionFactCheck     Collection = "fact_check"
)

func (c Collection) String() string {
	return string(c)
}

// Collections lists every collection the service owns.
var Collections = []Collection{
	CollectionOrganizations,
	CollectionJournalists,
	CollectionNews,
	CollectionFactCheck,
}

const (
	// PlaceholderWallet is used whenever an entity carries no wallet address.
	PlaceholderWallet = "0x1c620232Fe5Ab700Cc65bBb4Ebdf15aFFe96e1B5"

	DefaultOrganizationImage = "https://ipfs.io/ipfs/QmYGAKBR1R34g8kXgDaQSjuji1WwYokNM9jEkMG67jjD1w"
	DefaultJournalistImage   = "https://ipfs.io/ipfs/QmSyKYTMCZmkU6Vp3E62rSDn3UDqM5f25uoQCYN5AfXRtX"

	DefaultGasLimit uint64 = 5000000
	DefaultGateway         = "https://ipfs.io/ipfs/"
)

// ledger method and event names
const (
	MethodSendCertificate      = "sendCertificate"
	MethodSubmitNews           = "submitNews"
	MethodGetTokenIdOfAnUser   = "getTokenIdOfAnUser"
	MethodVerifyCid            = "verifyCid"
	MethodVerifyFactCheckerCid = "verifyFactCheckerCid"

	EventTransfer         = "transfer"
	EventStoredLatestNews = "storedLatestNews"
)

// Fields is a flat set of document fields to write.
type Fields map[string]any

var recordIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsRecordID reports whether id is a 24 hex digit document id.
func IsRecordID(id string) bool {
	return recordIDPattern.MatchString(id)
}
