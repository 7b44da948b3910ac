package conversation

import "time"

// DevicePair is one unordered pair of devices. ID is the canonical pair id;
// PairHash and TempPairID keep rows from older identity schemes addressable.
type DevicePair struct {
	ID         string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	DeviceA    string    `gorm:"type:varchar(255);not null" json:"device_a"`
	DeviceB    string    `gorm:"type:varchar(255);not null" json:"device_b"`
	PairHash   string    `gorm:"type:varchar(32);index;not null" json:"pair_hash"`
	TempPairID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"temp_pair_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (DevicePair) TableName() string { return "device_pairs" }

type Summary struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PairID    string    `gorm:"type:varchar(128);not null;index:idx_summary_pair_created,priority:1" json:"pair_id"`
	Noidung   string    `gorm:"type:text;not null" json:"noidung"`
	Hoancanh  string    `gorm:"type:text;not null" json:"hoancanh"`
	SoCau     int       `gorm:"not null" json:"so_cau"`
	CreatedAt time.Time `gorm:"index:idx_summary_pair_created,priority:2" json:"created_at"`

	Pair *DevicePair `gorm:"foreignKey:PairID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Summary) TableName() string { return "conversation_summaries" }

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{&DevicePair{}, &Summary{}}
}

// Message is one line of a staged conversation.
type Message struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp any    `json:"timestamp,omitempty"`
}

// Content is the full conversation. It is staged in memory only.
type Content struct {
	Messages []Message      `json:"messages"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SummaryInput is the digest a caller submits alongside the content.
type SummaryInput struct {
	Noidung  string `json:"noidung"`
	Hoancanh string `json:"hoancanh"`
	SoCau    int    `json:"so_cau"`
}

// Payload is a validated submission.
type Payload struct {
	Content Content
	Summary SummaryInput
}

// SubmitResult is returned for an accepted submission.
type SubmitResult struct {
	PairID             string `json:"pair_id"`
	TempPairID         string `json:"temp_pair_id"`
	TempConversationID string `json:"temp_conversation_id"`
	SummaryID          uint64 `json:"summary_id"`
}
