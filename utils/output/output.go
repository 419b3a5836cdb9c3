package output

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "output")

// Record 每步记录的一条指标
type Record struct {
	Step        int32   `bson:"step" json:"step"`                   // 记录时已完成的步数
	T           float64 `bson:"t" json:"t"`                         // 记录时的虚拟时间
	AvgWaitTime float64 `bson:"avg_wait_time" json:"avg_wait_time"` // 平均等待计数
}

// Writer 指标序列的输出目标
type Writer interface {
	// 写入一条记录，实现可以缓存后批量写出
	Write(ctx context.Context, r Record) error
	// 写出所有缓存的记录
	Flush(ctx context.Context) error
	// 写出缓存并释放资源
	Close(ctx context.Context) error
}

// Series 内存中的指标序列
// 说明：仿真循环写入、RPC并发读取，由读写锁保护
type Series struct {
	mtx     sync.RWMutex
	records []Record
}

func NewSeries() *Series {
	return &Series{records: make([]Record, 0)}
}

func (s *Series) Write(_ context.Context, r Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *Series) Flush(context.Context) error {
	return nil
}

func (s *Series) Close(context.Context) error {
	return nil
}

// Latest 最新一条记录，序列为空时返回false
func (s *Series) Latest() (Record, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// Records 全部记录的副本
func (s *Series) Records() []Record {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return slices.Clone(s.records)
}

func (s *Series) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.records)
}
