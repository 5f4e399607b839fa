package models

const (
	InitialCreditScore = 100
	MaxCreditScore     = 100
	MinCreditScore     = 0
)

// Borrower 以规范化后的名字为主键，没有外键约束
type Borrower struct {
	Key              string      `gorm:"primaryKey;size:200" json:"key"`
	Name             string      `gorm:"size:200;not null" json:"name"`
	CreditScore      int         `gorm:"not null" json:"creditScore"`
	TotalBorrowings  int         `gorm:"not null;default:0" json:"totalBorrowings"`
	OnTimeReturns    int         `gorm:"not null;default:0" json:"onTimeReturns"`
	LateReturns      int         `gorm:"not null;default:0" json:"lateReturns"`
	DamagedItems     int         `gorm:"not null;default:0" json:"damagedItems"`
	MilestoneAwarded bool        `gorm:"not null;default:false" json:"milestoneAwarded"`
	Contact          ContactInfo `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
}

func (Borrower) TableName() string { return BorrowerTable }

type Settings struct {
	ID             uint `gorm:"primaryKey" json:"-"`
	MaxBorrowLimit int  `gorm:"not null" json:"maxBorrowLimit"`
	DefaultDueDays int  `gorm:"not null" json:"defaultDueDays"`
}

const SettingsRowID = 1

func DefaultSettings() Settings {
	return Settings{ID: SettingsRowID, MaxBorrowLimit: 5, DefaultDueDays: 7}
}

func (Settings) TableName() string { return SettingsTable }
