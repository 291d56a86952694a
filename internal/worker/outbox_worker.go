package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"spacehub/internal/database"
	"spacehub/internal/logging"
	"spacehub/internal/metrics"
	"spacehub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNoHandler is returned for task types nobody registered.
var ErrNoHandler = errors.New("no handler registered for task type")

// TaskHandler delivers one outbox task. A returned error schedules a retry.
type TaskHandler func(ctx context.Context, task *models.OutboxTask) error

// OutboxWorker consumes outbox tasks and hands them to registered handlers.
type OutboxWorker struct {
	db            *database.DB
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.OutboxTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]TaskHandler
}

// NewOutboxWorker builds a worker with sane defaults.
func NewOutboxWorker(db *database.DB, redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, logger *zerolog.Logger) *OutboxWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	l := logging.Component(logger, "outbox_worker")

	return &OutboxWorker{
		db:            db,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.OutboxTask, models.WorkerQueueSize),
		redisQueueKey: "outbox:queue",
		deadLetterKey: "outbox:deadletter",
		pollInterval:  pollInterval,
		batchSize:     20,
		logger:        l,
		handlers:      make(map[string]TaskHandler),
	}
}

// Handle registers the handler for a task type, replacing any previous one.
func (w *OutboxWorker) Handle(taskType string, h TaskHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[taskType] = h
}

// HasHandler reports whether tasks of the type can be delivered.
func (w *OutboxWorker) HasHandler(taskType string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.handlers[taskType]
	return ok
}

// EnqueueTask persists the task and schedules it via redis or the in-memory queue.
func (w *OutboxWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, payload interface{}) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if payload == nil {
		return errors.New("payload is required")
	}

	var raw string
	switch p := payload.(type) {
	case string:
		raw = p
	case []byte:
		raw = string(p)
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		raw = string(data)
	}

	task := models.OutboxTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   raw,
		Status:    database.OutboxPending,
	}
	if err := w.db.CreateOutboxTask(ctx, &task); err != nil {
		return fmt.Errorf("persist outbox task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}
	return nil
}

// Start runs the main loop until ctx is done.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("outbox worker started")
	defer w.logger.Info().Msg("outbox worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		if n := w.drainPending(ctx); n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// drainPending processes one batch of due tasks from the database.
func (w *OutboxWorker) drainPending(ctx context.Context) int {
	tasks, err := w.db.GetPendingOutboxTasks(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("fetch pending tasks")
		}
		return 0
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return len(tasks)
}

func (w *OutboxWorker) tryLocalQueue() (models.OutboxTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.OutboxTask{}, false
	}
}

func (w *OutboxWorker) tryRedis(ctx context.Context) (models.OutboxTask, bool) {
	if w.redis == nil {
		return models.OutboxTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return models.OutboxTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP")
		return models.OutboxTask{}, false
	}
	if len(res) != 2 {
		return models.OutboxTask{}, false
	}
	var task models.OutboxTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.OutboxTask{}, false
	}
	return task, true
}

func (w *OutboxWorker) processTask(ctx context.Context, task *models.OutboxTask) {
	// задача из очереди могла быть уже обработана через опрос БД
	current, err := w.db.GetOutboxTask(ctx, task.ID)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("reload task")
		return
	}
	if current.Status == database.OutboxCompleted || current.Status == database.OutboxFailed {
		return
	}
	task = current

	w.mu.RLock()
	handler, ok := w.handlers[task.TaskType]
	w.mu.RUnlock()
	if !ok {
		w.failTask(ctx, task, fmt.Errorf("%w: %s", ErrNoHandler, task.TaskType))
		return
	}

	started := time.Now()
	err = handler(ctx, task)
	metrics.ObserveOutboxTask(task.TaskType, err == nil, time.Since(started))
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateOutboxTaskStatus(ctx, task.ID, database.OutboxCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark completed")
	}
}

func (w *OutboxWorker) retryOrFail(ctx context.Context, task *models.OutboxTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("task_id", task.ID).Str("type", task.TaskType).
		Int("attempt", attempt).Time("next_retry_at", next).Msg("task failed, retry scheduled")
	if err := w.db.UpdateOutboxTaskStatus(ctx, task.ID, database.OutboxRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark retry")
	}
}

func (w *OutboxWorker) failTask(ctx context.Context, task *models.OutboxTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("type", task.TaskType).Msg("task failed permanently")
	if err := w.db.UpdateOutboxTaskStatus(ctx, task.ID, database.OutboxFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *OutboxWorker) pushRedis(ctx context.Context, task models.OutboxTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *OutboxWorker) pushDeadLetter(ctx context.Context, task *models.OutboxTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}
