package domain

import "strconv"

// CharacterID 遊戲角色 ID，帳戶擁有者的唯一識別
type CharacterID int64

// CharacterIDOf 由整數建立 CharacterID
func CharacterIDOf(value int64) CharacterID {
	return CharacterID(value)
}

// Value 回傳原始整數值
func (c CharacterID) Value() int64 {
	return int64(c)
}

func (c CharacterID) String() string {
	return "CID:" + strconv.FormatInt(int64(c), 10)
}

// AccountID 帳戶 ID，由儲存層在建立時分配；0 代表尚未儲存
type AccountID int64

// Value 回傳原始整數值
func (id AccountID) Value() int64 {
	return int64(id)
}
