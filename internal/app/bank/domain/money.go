package domain

import (
	"cmp"
	"strconv"
)

// Money 金額，以最小貨幣單位 (minor units) 儲存
// 建構時不做檢查，負數可以被表示；是否允許負數由使用端 (例如帳戶餘額) 決定
type Money int64

// ZeroMoney 零元
const ZeroMoney Money = 0

// MoneyFrom 由整數金額建立 Money
func MoneyFrom(amount int64) Money {
	return Money(amount)
}

// Add 兩筆金額相加，不改動原值
// 溢位行為未定義，金額預期遠小於 int64 範圍
func Add(a, b Money) Money {
	return Money(int64(a) + int64(b))
}

// Amount 回傳原始整數金額
func (m Money) Amount() int64 {
	return int64(m)
}

// IsNegative 是否為負數
func (m Money) IsNegative() bool {
	return m < 0
}

// Compare 比較兩筆金額，回傳 -1, 0, +1
func (m Money) Compare(other Money) int {
	return cmp.Compare(m, other)
}

func (m Money) String() string {
	return "$" + strconv.FormatInt(int64(m), 10)
}
