package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTotal is the summed amount of all transactions on one calendar date.
type DailyTotal struct {
	Date  time.Time       `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// CategoryTotal is the summed amount of all transactions in one category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
}
