package models

import (
	"time"
)

// Document is one record of a collection, stored as a JSONB body keyed by
// collection and record id.
type Document struct {
	Collection string    `json:"collection" gorm:"primaryKey;type:text"`
	Key        string    `json:"key" gorm:"primaryKey;type:text"`
	Body       string    `json:"body" gorm:"type:jsonb;not null;default:'{}'"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate      time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

// CommitLog records every ledger transaction a workflow persisted.
type CommitLog struct {
	TxHash     string    `json:"txHash" gorm:"primaryKey;type:text"`
	Type       string    `json:"type" gorm:"type:text;index"`
	Collection string    `json:"collection" gorm:"type:text"`
	Key        string    `json:"key" gorm:"type:text;index"`
	ParentKey  string    `json:"parentKey" gorm:"type:text"`
	ContentURI string    `json:"contentUri" gorm:"type:text"`
	CDate      time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
