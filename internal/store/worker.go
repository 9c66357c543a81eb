package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	stdatomic "sync/atomic"
	"time"

	"github.com/kairodev/kairo/internal/config"
	kairoErrors "github.com/kairodev/kairo/internal/errors"

	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
)

type Operation int

const (
	OpAppendMessage Operation = iota
	OpReadMessages
	OpSaveThread
	OpGetThread
	OpListThreads
	OpResetThread
)

type Request struct {
	Op       Operation
	Payload  interface{}
	Result   chan error
	Response chan interface{}
}

type AppendMessagePayload struct {
	ThreadID string
	Message  Message
}

type ReadMessagesPayload struct {
	ThreadID string
	Limit    int // 0 = all
}

type SaveThreadPayload struct {
	Thread *ThreadMeta
}

type GetThreadPayload struct {
	ThreadID string
}

type ResetThreadPayload struct {
	ThreadID string
}

// Worker serializes all store mutations through one goroutine. Every
// write funnels through the inbox, so thread logs and the index never
// see concurrent writers.
type Worker struct {
	basePath string
	inbox    chan Request
	fileLock *FileLock
	quit     chan struct{}
	done     chan struct{}
	index    *ThreadIndex
	running  stdatomic.Bool
}

type RuntimeConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
	InboxSize    int
}

func NewWorker(basePath string, runtimeCfg RuntimeConfig) (*Worker, error) {
	resolved, err := ResolveBasePath(basePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(ThreadsDir(resolved), 0755); err != nil {
		return nil, fmt.Errorf("failed to create threads dir: %w", err)
	}

	if runtimeCfg.LockTimeout <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultStoreLockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse default store lock timeout: %w", err)
		}
		runtimeCfg.LockTimeout = d
	}
	if runtimeCfg.LockRetry <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultStoreLockRetry)
		if err != nil {
			return nil, fmt.Errorf("parse default store lock retry: %w", err)
		}
		runtimeCfg.LockRetry = d
	}
	if runtimeCfg.LockMaxRetry <= 0 {
		runtimeCfg.LockMaxRetry = config.DefaultStoreLockMaxRetry
	}
	if runtimeCfg.InboxSize <= 0 {
		runtimeCfg.InboxSize = config.DefaultStoreInboxSize
	}

	fileLock, err := NewFileLock(resolved, &FileLockConfig{
		LockTimeout:  runtimeCfg.LockTimeout,
		LockRetry:    runtimeCfg.LockRetry,
		LockMaxRetry: runtimeCfg.LockMaxRetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	index := &ThreadIndex{Threads: make(map[string]ThreadMeta)}
	if data, err := os.ReadFile(IndexPath(resolved)); err == nil {
		if err := json.Unmarshal(data, index); err != nil {
			slog.Warn("Failed to parse thread index, starting fresh", "error", err)
			index = &ThreadIndex{Threads: make(map[string]ThreadMeta)}
		}
	}

	return &Worker{
		basePath: resolved,
		inbox:    make(chan Request, runtimeCfg.InboxSize),
		fileLock: fileLock,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		index:    index,
	}, nil
}

func (w *Worker) Start() {
	w.running.Store(true)
	go w.loop()
}

func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
	w.fileLock.Unlock()
}

func (w *Worker) loop() {
	slog.Debug("Store worker started", "base", w.basePath)
	defer func() {
		w.running.Store(false)
		close(w.done)
	}()

	for {
		select {
		case req := <-w.inbox:
			err := w.handle(req)
			if req.Result != nil {
				req.Result <- err
			}
		case <-w.quit:
			slog.Debug("Store worker stopping")
			return
		}
	}
}

func (w *Worker) handle(req Request) error {
	switch req.Op {
	case OpAppendMessage:
		p, ok := req.Payload.(AppendMessagePayload)
		if !ok {
			return fmt.Errorf("invalid payload for AppendMessage")
		}
		return w.appendMessage(p.ThreadID, p.Message)
	case OpReadMessages:
		p, ok := req.Payload.(ReadMessagesPayload)
		if !ok {
			return fmt.Errorf("invalid payload for ReadMessages")
		}
		msgs, err := w.readMessages(p.ThreadID, p.Limit)
		if req.Response != nil {
			req.Response <- msgs
		}
		return err
	case OpSaveThread:
		p, ok := req.Payload.(SaveThreadPayload)
		if !ok {
			return fmt.Errorf("invalid payload for SaveThread")
		}
		w.index.Threads[p.Thread.ID] = *p.Thread
		return w.saveIndex()
	case OpGetThread:
		p, ok := req.Payload.(GetThreadPayload)
		if !ok {
			return fmt.Errorf("invalid payload for GetThread")
		}
		if meta, ok := w.index.Threads[p.ThreadID]; ok {
			if req.Response != nil {
				req.Response <- &meta
			}
		} else if req.Response != nil {
			req.Response <- nil
		}
		return nil
	case OpListThreads:
		metas := make([]ThreadMeta, 0, len(w.index.Threads))
		for _, meta := range w.index.Threads {
			metas = append(metas, meta)
		}
		sort.Slice(metas, func(i, j int) bool {
			return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
		})
		if req.Response != nil {
			req.Response <- metas
		}
		return nil
	case OpResetThread:
		p, ok := req.Payload.(ResetThreadPayload)
		if !ok {
			return fmt.Errorf("invalid payload for ResetThread")
		}
		return w.resetThread(p.ThreadID)
	default:
		return fmt.Errorf("unknown operation: %d", req.Op)
	}
}

func (w *Worker) appendMessage(threadID string, msg Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	path := ThreadLogPath(w.basePath, threadID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	meta, ok := w.index.Threads[threadID]
	if !ok {
		meta = ThreadMeta{ID: threadID, Title: "New Conversation", CreatedAt: msg.CreatedAt}
	}
	meta.MessageCount++
	meta.UpdatedAt = msg.CreatedAt
	w.index.Threads[threadID] = meta
	return w.saveIndex()
}

func (w *Worker) readMessages(threadID string, limit int) ([]Message, error) {
	data, err := os.ReadFile(ThreadLogPath(w.basePath, threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var msgs []Message
	for _, line := range lines {
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			slog.Warn("Skipping unparseable message line", "thread", threadID, "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (w *Worker) resetThread(threadID string) error {
	if err := os.Remove(ThreadLogPath(w.basePath, threadID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(w.index.Threads, threadID)
	return w.saveIndex()
}

func (w *Worker) saveIndex() error {
	data, err := json.MarshalIndent(w.index, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(IndexPath(w.basePath), bytes.NewReader(data))
}

// Public API for other components

var errWorkerStopped = fmt.Errorf("store worker is not running")

func (w *Worker) AppendMessage(threadID string, msg Message) error {
	if !w.running.Load() {
		return errWorkerStopped
	}
	res := make(chan error, 1)
	w.inbox <- Request{
		Op:      OpAppendMessage,
		Payload: AppendMessagePayload{ThreadID: threadID, Message: msg},
		Result:  res,
	}
	return <-res
}

func (w *Worker) ReadMessages(threadID string, limit int) ([]Message, error) {
	if !w.running.Load() {
		return nil, errWorkerStopped
	}
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op:       OpReadMessages,
		Payload:  ReadMessagesPayload{ThreadID: threadID, Limit: limit},
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	msgs, _ := (<-resp).([]Message)
	return msgs, nil
}

func (w *Worker) SaveThread(meta *ThreadMeta) error {
	if !w.running.Load() {
		return errWorkerStopped
	}
	res := make(chan error, 1)
	w.inbox <- Request{
		Op:      OpSaveThread,
		Payload: SaveThreadPayload{Thread: meta},
		Result:  res,
	}
	return <-res
}

func (w *Worker) GetThread(id string) (*ThreadMeta, error) {
	if !w.running.Load() {
		return nil, errWorkerStopped
	}
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op:       OpGetThread,
		Payload:  GetThreadPayload{ThreadID: id},
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	meta, _ := (<-resp).(*ThreadMeta)
	if meta == nil {
		return nil, kairoErrors.NotFound(fmt.Sprintf("thread %s", id))
	}
	return meta, nil
}

func (w *Worker) ListThreads() ([]ThreadMeta, error) {
	if !w.running.Load() {
		return nil, errWorkerStopped
	}
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op:       OpListThreads,
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	metas, _ := (<-resp).([]ThreadMeta)
	return metas, nil
}

func (w *Worker) ResetThread(threadID string) error {
	if !w.running.Load() {
		return errWorkerStopped
	}
	res := make(chan error, 1)
	w.inbox <- Request{
		Op:      OpResetThread,
		Payload: ResetThreadPayload{ThreadID: threadID},
		Result:  res,
	}
	return <-res
}
