// internal/domain/record/record.go
package record

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection names one of the monitored record collections.
type Collection string

const (
	CollectionCashReports   Collection = "cash_reports"
	CollectionAnnouncements Collection = "announcements"
	CollectionActivities    Collection = "activities"
	CollectionSchedules     Collection = "schedules"
)

// Monitored lists the collections scanned by the daily job, in report order.
var Monitored = []Collection{
	CollectionCashReports,
	CollectionAnnouncements,
	CollectionActivities,
	CollectionSchedules,
}

// CashReportType is the income/expense tag on a cash report.
type CashReportType string

const (
	CashReportIncome  CashReportType = "income"
	CashReportExpense CashReportType = "expense"
)

// Record is a scheduled record read from one of the monitored collections.
// Only the fields relevant to its collection are populated.
type Record struct {
	Collection Collection
	ID         string

	Title       string
	Message     string
	Content     string
	Description string

	// cash reports and activities
	Date *time.Time

	// cash reports
	Type    CashReportType
	Amount  decimal.Decimal
	Deleted bool

	// announcements, inclusive range
	StartDate *time.Time
	EndDate   *time.Time

	// schedules
	Frequency string
	Days      []string
	CreatedAt *time.Time
}
