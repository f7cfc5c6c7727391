// Package wal 以 JSON Lines 格式追加寫入的 Write-Ahead Log
package wal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// FileMode WAL 檔案權限 (rw-r--r--)
const FileMode fs.FileMode = 0o644

// ErrBroken 先前的寫入失敗且無法截回，之後的寫入一律拒絕
var ErrBroken = errors.New("wal is broken")

// file Log 需要的檔案操作，測試時可替換
type file interface {
	io.ReaderAt
	io.WriterAt
	Sync() error
	Truncate(size int64) error
	Close() error
}

// Log Write-Ahead Log，每筆紀錄佔一行
//
// Append 寫入並 fsync 成功才算落地；失敗時檔案截回寫入前的長度，
// 回報失敗的紀錄不會在重放時出現。
// Replay 遇到結尾不完整的紀錄 (寫到一半當機) 會把它截掉再繼續使用
type Log struct {
	mu     sync.Mutex
	f      file
	size   int64 // 已落地資料的長度，也是下一筆的寫入位置
	broken error
}

// Open 開啟或建立 WAL 檔案
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Log{f: f, size: info.Size()}, nil
}

// Append 寫入一筆紀錄並刷入硬碟，回傳 nil 代表資料已落地
func (l *Log) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode wal record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		return l.broken
	}
	if _, err := l.f.WriteAt(line, l.size); err != nil {
		return l.rollback(fmt.Errorf("write wal record: %w", err))
	}
	if err := l.f.Sync(); err != nil {
		return l.rollback(fmt.Errorf("sync wal: %w", err))
	}
	l.size += int64(len(line))
	return nil
}

// rollback 截回最後一筆落地紀錄的結尾 (呼叫端需持有鎖)
func (l *Log) rollback(cause error) error {
	if err := l.f.Truncate(l.size); err != nil {
		l.broken = fmt.Errorf("%w: truncate to %d after failed append: %v", ErrBroken, l.size, err)
		return errors.Join(cause, l.broken)
	}
	return cause
}

// Replay 依寫入順序把每筆紀錄交給 fn
//
// 最後一筆不完整時截掉；中間出現壞掉的紀錄則回傳錯誤
func (l *Log) Replay(fn func(record []byte) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := bufio.NewReader(io.NewSectionReader(l.f, 0, l.size))
	var offset int64
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				// 結尾沒有換行: 寫到一半的紀錄
				return l.truncateTail(offset)
			}
			return nil
		}
		if err != nil {
			return err
		}

		end := offset + int64(len(line))
		record := line[:len(line)-1]
		if !json.Valid(record) {
			if end == l.size {
				return l.truncateTail(offset)
			}
			return fmt.Errorf("corrupt wal record at offset %d", offset)
		}
		if err := fn(record); err != nil {
			return err
		}
		offset = end
	}
}

func (l *Log) truncateTail(offset int64) error {
	if err := l.f.Truncate(offset); err != nil {
		return fmt.Errorf("truncate torn wal record at %d: %w", offset, err)
	}
	l.size = offset
	return nil
}

// Close 關閉檔案
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
