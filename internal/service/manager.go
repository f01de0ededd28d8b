package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapmeta/internal/config"
	"snapmeta/internal/dto"
	"snapmeta/internal/logger"
	"snapmeta/internal/pipeline"
	"snapmeta/internal/service/storage"
)

var (
	// ErrBusy is returned by Submit when the processing queue is full.
	ErrBusy = errors.New("processing queue full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("manager stopped")
)

// Broadcaster pushes a message to connected viewers without blocking.
type Broadcaster interface {
	Broadcast(message []byte) bool
}

type Manager struct {
	processor   *pipeline.Processor
	slotService *storage.SlotService
	broadcaster Broadcaster
	logger      *logger.Logger

	processingQueue chan processingTask
	numWorkers      int

	queueMu sync.RWMutex // guards stopped and the close of processingQueue
	stopped bool

	currentMu sync.RWMutex
	current   *pipeline.Event

	wg sync.WaitGroup
}

type processingTask struct {
	ctx   context.Context
	input pipeline.Input
	event *pipeline.Event
	done  chan struct{}
}

func NewManager(processor *pipeline.Processor, slotService *storage.SlotService, broadcaster Broadcaster, config *config.Config, logger *logger.Logger) *Manager {
	workers := config.ProcessingWorkers
	if workers < 1 {
		workers = 1
	}
	queueSize := config.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	manager := &Manager{
		processor:       processor,
		slotService:     slotService,
		broadcaster:     broadcaster,
		logger:          logger,
		numWorkers:      workers,
		processingQueue: make(chan processingTask, queueSize),
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("🎬 Manager started with %d worker(s), queue size %d", workers, queueSize)
	return manager
}

// Submit queues in and waits for its event to finish. A full queue fails
// fast with ErrBusy; nothing is retried. If ctx ends first, the event keeps
// its context and is cancelled with it.
func (m *Manager) Submit(ctx context.Context, in pipeline.Input) (*pipeline.Result, error) {
	task := processingTask{
		ctx:   ctx,
		input: in,
		event: pipeline.NewEvent(in.Origin()),
		done:  make(chan struct{}),
	}

	if err := m.enqueue(task); err != nil {
		return nil, err
	}

	select {
	case <-task.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := task.event.Err(); err != nil {
		return nil, err
	}
	return task.event.Result(), nil
}

func (m *Manager) enqueue(task processingTask) error {
	m.queueMu.RLock()
	defer m.queueMu.RUnlock()
	if m.stopped {
		return ErrStopped
	}

	select {
	case m.processingQueue <- task:
		m.logger.Info("📥 %s event %s queued", task.event.Origin, task.event.ID)
		return nil
	default:
		m.logger.Warning("⚠️  Processing queue full - rejecting %s event", task.event.Origin)
		return ErrBusy
	}
}

// Redisplay rebuilds a result from the stored slots without running any stage.
func (m *Manager) Redisplay(ctx context.Context, imageKey string) (*pipeline.Result, error) {
	pending, err := m.slotService.Load(ctx, imageKey)
	if err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageRedisplay, Err: err}
	}
	return &pipeline.Result{
		DisplayURI: pending.ImageURI,
		Metadata:   pending.Metadata,
	}, nil
}

// Current returns the most recently started event, or nil.
func (m *Manager) Current() *pipeline.Event {
	m.currentMu.RLock()
	defer m.currentMu.RUnlock()
	return m.current
}

func (m *Manager) setCurrent(ev *pipeline.Event) {
	m.currentMu.Lock()
	m.current = ev
	m.currentMu.Unlock()
}

func (m *Manager) GetSlotService() *storage.SlotService {
	return m.slotService
}

// processingWorker owns each event it takes from the queue until the event finishes.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("🔧 Processing worker %d started", workerID)

	for task := range m.processingQueue {
		m.process(task)
	}

	m.logger.Info("🔧 Processing worker %d stopped", workerID)
}

func (m *Manager) process(task processingTask) {
	defer close(task.done)
	// A panic past the processor must not take the worker down with it.
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithEvent(task.event.ID).Error("💥 Worker recovered from panic: %v", r)
			task.event.Abort(pipeline.StagePersist, fmt.Errorf("panic: %v", r))
		}
	}()

	m.setCurrent(task.event)
	if err := m.processor.Run(task.ctx, task.event, task.input); err != nil {
		m.logger.WithEvent(task.event.ID).Error("Event not run: %v", err)
		return
	}

	result := task.event.Result()
	if result == nil {
		return
	}

	// The slots are written even if the submitter already went away.
	ctx := context.WithoutCancel(task.ctx)
	if err := m.slotService.Save(ctx, result.DisplayURI, result.Metadata); err != nil {
		m.logger.WithEvent(result.EventID).Error("Failed to persist event: %v", err)
	}
	m.notify(result)
}

func (m *Manager) notify(result *pipeline.Result) {
	if m.broadcaster == nil {
		return
	}

	msg, err := json.Marshal(dto.EventNotification{
		EventID:      result.EventID,
		Origin:       result.Origin,
		MetadataKind: string(result.Metadata.Kind()),
		Width:        result.Width,
		Height:       result.Height,
		Transform:    result.Transform,
		ImageKey:     m.slotService.ImageKey(),
		ReadyAt:      time.Now().UTC(),
	})
	if err != nil {
		m.logger.Error("Failed to encode notification: %v", err)
		return
	}
	if !m.broadcaster.Broadcast(msg) {
		m.logger.Warning("Viewer notification dropped for event %s", result.EventID)
	}
}

// Stop rejects new work and waits for queued events to finish.
func (m *Manager) Stop() {
	m.queueMu.Lock()
	if m.stopped {
		m.queueMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.queueMu.Unlock()

	m.wg.Wait()
	m.logger.Info("🛑 All processing workers stopped")
}
