package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// APR 年利率，以小數表示 (0.1 代表 10%)
type APR float64

// NewAPR 建立年利率，負數或非有限數回傳 General
func NewAPR(rate float64) (APR, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, General{Message: fmt.Sprintf("%v is not a valid APR", rate)}
	}
	if rate < 0 {
		return 0, General{Message: fmt.Sprintf("%v is a negative APR", rate)}
	}
	return APR(rate), nil
}

// Value 回傳小數形式的利率
func (a APR) Value() float64 {
	return float64(a)
}

// Percent 回傳百分比形式的利率 (0.1 -> 10)
func (a APR) Percent() float64 {
	return float64(a) * 100
}

func (a APR) String() string {
	return strconv.FormatFloat(a.Percent(), 'f', -1, 64) + "%"
}

// LoanID 貸款 ID，由儲存層分配；0 代表尚未儲存
type LoanID int64

// Value 回傳原始整數值
func (id LoanID) Value() int64 {
	return int64(id)
}

// PersonalLoan 個人貸款 (計息排程不在此處理)
type PersonalLoan struct {
	id        LoanID
	apr       APR
	createdAt time.Time
}

// NewPersonalLoan 建立尚未儲存的個人貸款，APR 為負時回傳錯誤
func NewPersonalLoan(apr APR) (*PersonalLoan, error) {
	valid, err := NewAPR(apr.Value())
	if err != nil {
		return nil, err
	}
	return &PersonalLoan{apr: valid}, nil
}

// RestorePersonalLoan 由儲存層還原貸款，不做檢查
func RestorePersonalLoan(id LoanID, apr APR, createdAt time.Time) *PersonalLoan {
	return &PersonalLoan{id: id, apr: apr, createdAt: createdAt}
}

func (l *PersonalLoan) ID() LoanID           { return l.id }
func (l *PersonalLoan) APR() APR             { return l.apr }
func (l *PersonalLoan) CreatedAt() time.Time { return l.createdAt }

func (l *PersonalLoan) String() string {
	return fmt.Sprintf("Personal loan %d at %s APR", l.id, l.apr)
}
