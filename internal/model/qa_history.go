package model

import "time"

// QAHistory is one answered question as persisted by the history worker.
type QAHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Citations []string  `gorm:"type:text;serializer:json" json:"citations"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (QAHistory) TableName() string {
	return "qa_history"
}

// HistoryPage is one page of QAHistory in creation order.
type HistoryPage struct {
	Items    []QAHistory `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
