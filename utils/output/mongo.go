package output

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/fourway-stop-sim/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// inserter mongo.Collection中用到的部分
type inserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoWriter 将指标序列批量写入MongoDB集合
// 功能：缓存记录，达到批量大小时用InsertMany写出，Close时写出剩余记录并断开连接
type MongoWriter struct {
	client *mongo.Client // 由NewMongoWriter创建时非空
	col    inserter
	batch  int
	buffer []Record
}

// NewMongoWriter 连接MongoDB并创建写入器
// 参数：ctx-连接使用的上下文，c-输出配置（uri/db/col/batch）
// 返回：写入器，连接失败时返回错误
func NewMongoWriter(ctx context.Context, c config.Output) (*MongoWriter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	log.Infof("output to mongo db=%s col=%s batch=%d", c.DB, c.Col, c.Batch)
	w := newMongoWriter(client.Database(c.DB).Collection(c.Col), c.Batch)
	w.client = client
	return w, nil
}

func newMongoWriter(col inserter, batch int) *MongoWriter {
	if batch <= 0 {
		log.Panicf("invalid batch size %d", batch)
	}
	return &MongoWriter{
		col:    col,
		batch:  batch,
		buffer: make([]Record, 0, batch),
	}
}

func (w *MongoWriter) Write(ctx context.Context, r Record) error {
	w.buffer = append(w.buffer, r)
	if len(w.buffer) >= w.batch {
		return w.Flush(ctx)
	}
	return nil
}

func (w *MongoWriter) Flush(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	docs := lo.Map(w.buffer, func(r Record, _ int) interface{} { return r })
	if _, err := w.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %d records: %w", len(docs), err)
	}
	log.Debugf("flushed %d records", len(docs))
	w.buffer = w.buffer[:0]
	return nil
}

func (w *MongoWriter) Close(ctx context.Context) error {
	err := w.Flush(ctx)
	if w.client != nil {
		if derr := w.client.Disconnect(ctx); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}
