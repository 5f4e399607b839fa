// models/item_loan.go
package models

import "time"

const ItemTable = "lsb_items"
const LoanTable = "lsb_loans"
const BorrowerTable = "lsb_borrowers"
const SettingsTable = "lsb_settings"

const DefaultCategory = "Uncategorized"

type Item struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Category  string `gorm:"size:120;not null" json:"category"`
	Quantity  int    `gorm:"not null" json:"quantity"`  // 总数
	Available int    `gorm:"not null" json:"available"` // 当前可借
}

// Borrowed is the number of units currently out on loan.
func (it Item) Borrowed() int { return it.Quantity - it.Available }

type ContactInfo struct {
	Phone string `gorm:"size:64" json:"phone,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`
}

func (c ContactInfo) IsZero() bool { return c.Phone == "" && c.Email == "" }

type Loan struct {
	ID           int         `gorm:"primaryKey;autoIncrement:false" json:"id"`
	BorrowerName string      `gorm:"size:200;index;not null" json:"borrowerName"`
	ItemID       int         `gorm:"index;not null" json:"itemId"`
	ItemName     string      `gorm:"size:200" json:"itemName"` // 借出时的名称快照
	Quantity     int         `gorm:"not null" json:"quantity"`
	BorrowDate   time.Time   `gorm:"not null" json:"borrowDate"`
	DueDate      time.Time   `gorm:"index;not null" json:"dueDate"`
	Returned     bool        `gorm:"index;not null;default:false" json:"returned"`
	Contact      ContactInfo `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`

	ReturnDate      *time.Time `json:"returnDate,omitempty"`
	ReturnCondition Condition  `gorm:"size:20" json:"returnCondition,omitempty"`
	ReturnNotes     string     `gorm:"size:255" json:"returnNotes,omitempty"`
	ReturnQuantity  int        `json:"returnQuantity,omitempty"`
}

// LoanStatus is derived at read time; it is never stored.
type LoanStatus string

const (
	StatusActive   LoanStatus = "Active"
	StatusOverdue  LoanStatus = "Overdue"
	StatusReturned LoanStatus = "Returned"
)

func (Item) TableName() string { return ItemTable }
func (Loan) TableName() string { return LoanTable }
