// Package task 提供进程内异步任务调度
// 固定大小的 worker 池消费有界队列，同一业务键最多一个在途任务
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status 任务状态
type Status string

const (
	// StatusPending 已入队等待执行
	StatusPending Status = "pending"
	// StatusRunning 执行中
	StatusRunning Status = "running"
	// StatusRetrying 失败后等待重试
	StatusRetrying Status = "retrying"
	// StatusSucceeded 执行成功
	StatusSucceeded Status = "succeeded"
	// StatusFailed 重试耗尽或不可重试的失败
	StatusFailed Status = "failed"
)

var (
	// ErrQueueFull 队列已满
	ErrQueueFull = errors.New("task queue is full")
	// ErrDuplicateJob 同键任务已在途
	ErrDuplicateJob = errors.New("job with same key is already active")
	// ErrNotStarted 调度器未启动
	ErrNotStarted = errors.New("dispatcher is not started")
)

// Job 异步任务
// Key 标识业务对象，同键任务同一时刻最多一个在途
type Job interface {
	Key() string
	Run(ctx context.Context) error
}

// RetryPolicy 任务可选实现，决定某个错误是否触发重试
// 未实现时所有错误都按配置重试
type RetryPolicy interface {
	Retryable(err error) bool
}

// Record 任务状态记录
type Record struct {
	Key       string    `json:"key"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config 调度器配置
type Config struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

// Dispatcher 任务调度器
// 任务失败只记录状态，绝不向调用方传播
type Dispatcher struct {
	cfg   Config
	rdb   *redis.Client
	queue chan Job

	mu      sync.Mutex
	active  map[string]bool
	records map[string]*Record

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
}

// NewDispatcher 创建调度器
// rdb 可为 nil，此时状态只保留在内存
func NewDispatcher(cfg Config, rdb *redis.Client) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 300 * time.Second
	}
	return &Dispatcher{
		cfg:     cfg,
		rdb:     rdb,
		queue:   make(chan Job, cfg.QueueSize),
		active:  make(map[string]bool),
		records: make(map[string]*Record),
	}
}

// Start 启动 worker 池
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	log.Printf("task dispatcher started: workers=%d queueSize=%d", d.cfg.Workers, d.cfg.QueueSize)
}

// Stop 停止调度器，等待在途任务结束
// 队列中未开始的任务被丢弃
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	log.Printf("task dispatcher stopped")
}

// Enqueue 提交任务
// 同键任务已在途时返回 ErrDuplicateJob，队列满时返回 ErrQueueFull
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return ErrNotStarted
	}
	key := job.Key()
	if d.active[key] {
		d.mu.Unlock()
		return ErrDuplicateJob
	}
	d.active[key] = true
	d.setRecordLocked(key, StatusPending, 0, nil)
	d.mu.Unlock()

	select {
	case d.queue <- job:
		return nil
	default:
		d.mu.Lock()
		delete(d.active, key)
		d.setRecordLocked(key, StatusFailed, 0, ErrQueueFull)
		d.mu.Unlock()
		return ErrQueueFull
	}
}

// Record 查询任务状态
func (d *Dispatcher) Record(key string) (Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.queue:
			d.process(ctx, job)
		}
	}
}

// process 执行任务并按配置重试
// 任务实现 RetryPolicy 时由任务决定错误是否可重试
func (d *Dispatcher) process(ctx context.Context, job Job) {
	key := job.Key()

	// 终态写入和在途标记清除必须原子，否则看到终态的调用方重新入队会被拒绝
	finish := func(status Status, attempt int, cause error) {
		d.mu.Lock()
		delete(d.active, key)
		d.setRecordLocked(key, status, attempt, cause)
		d.mu.Unlock()
	}

	for attempt := 1; ; attempt++ {
		d.setRecord(key, StatusRunning, attempt, nil)

		err := d.runSafe(ctx, job)
		if err == nil {
			finish(StatusSucceeded, attempt, nil)
			return
		}

		retryable := true
		if policy, ok := job.(RetryPolicy); ok {
			retryable = policy.Retryable(err)
		}
		if !retryable || attempt > d.cfg.MaxRetries {
			log.Printf("task failed: key=%s attempts=%d err=%v", key, attempt, err)
			finish(StatusFailed, attempt, err)
			return
		}

		log.Printf("task retrying: key=%s attempt=%d err=%v", key, attempt, err)
		d.setRecord(key, StatusRetrying, attempt, err)
		select {
		case <-ctx.Done():
			finish(StatusFailed, attempt, ctx.Err())
			return
		case <-time.After(d.cfg.RetryDelay):
		}
	}
}

// runSafe 执行任务并把 panic 转换为错误
func (d *Dispatcher) runSafe(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task %s: %v", job.Key(), r)
		}
	}()
	return job.Run(ctx)
}

func (d *Dispatcher) setRecord(key string, status Status, attempts int, cause error) {
	d.mu.Lock()
	d.setRecordLocked(key, status, attempts, cause)
	d.mu.Unlock()
}

// setRecordLocked 更新内存状态并镜像到 redis
// 调用方必须持有 d.mu
func (d *Dispatcher) setRecordLocked(key string, status Status, attempts int, cause error) {
	rec := &Record{
		Key:       key,
		Status:    status,
		Attempts:  attempts,
		UpdatedAt: time.Now(),
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	d.records[key] = rec

	if d.rdb == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	// redis 写失败不影响任务本身
	if err := d.rdb.Set(context.Background(), "task:"+key, payload, 24*time.Hour).Err(); err != nil {
		log.Printf("task status mirror failed: key=%s err=%v", key, err)
	}
}
