package domain

import "time"

// LedgerEvent is a decoded contract event found in a receipt.
type LedgerEvent struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Receipt is the confirmation record of a mined transaction.
type Receipt struct {
	TxHash      string        `json:"txHash"`
	BlockNumber uint64        `json:"blockNumber"`
	GasUsed     uint64        `json:"gasUsed"`
	Status      uint64        `json:"status"`
	Events      []LedgerEvent `json:"events"`
}

// Event returns the first event with the given name.
func (r Receipt) Event(name string) (LedgerEvent, bool) {
	for _, ev := range r.Events {
		if ev.Name == name {
			return ev, true
		}
	}
	return LedgerEvent{}, false
}

// WorkflowEvent is broadcast after a workflow persisted its result.
type WorkflowEvent struct {
	Type          string `json:"type"`
	Collection    string `json:"collection"`
	ID            string `json:"id"`
	ParentID      string `json:"parentId,omitempty"`
	TransactionID string `json:"transactionId"`
	ContentURI    string `json:"contentUri"`
}

const (
	EventTypeOrganizationCertified = "organization.certified"
	EventTypeJournalistCertified   = "journalist.certified"
	EventTypeNewsPublished         = "news.published"
	EventTypeNewsRevised           = "news.revised"
	EventTypeFactChecked           = "news.factchecked"
)

// CommitEntry is one recorded ledger transaction of a record.
type CommitEntry struct {
	TxHash     string    `json:"txHash"`
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	ParentID   string    `json:"parentId,omitempty"`
	ContentURI string    `json:"contentUri"`
	CDate      time.Time `json:"cdate"`
}
