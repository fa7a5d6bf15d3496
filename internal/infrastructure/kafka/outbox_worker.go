package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/met-galaxy/field-engine/internal/usecase"
	"github.com/met-galaxy/field-engine/pkg/e"
	"github.com/met-galaxy/field-engine/pkg/jitter"
	"github.com/met-galaxy/field-engine/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// OutboxWorker drains the transactional outbox into Kafka: it drains any
// backlog on startup, then blocks on LISTEN/NOTIFY and drains again each
// time a producing transaction commits.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	stop      chan struct{}
	wg        sync.WaitGroup
	dbConnStr string
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		stop:      make(chan struct{}),
		dbConnStr: dbConnStr,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("draining pending outbox events on startup")
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("startup batch failed: %v", err)
			return
		}
		if !hasMore {
			break
		}
	}

	<-ctx.Done()
	w.logger.Infof("outbox worker stopped by context cancellation")
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn
	var err error

	connect := func() error {
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		_, err = conn.Exec(ctx, "LISTEN outbox_pending")
		if err != nil {
			conn.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("subscribed to outbox_pending channel")
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("initial connect failed: %v", err)
		return
	}
	defer conn.Close(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
			notif, err := conn.WaitForNotification(ctxWithTimeout)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Warnf("connection lost: %v, reconnecting", err)
				conn.Close(ctx)

				time.Sleep(jitter.Duration(2*time.Second, jitter.DefaultJitter))
				if err := connect(); err != nil {
					w.logger.Warnf("reconnect failed: %v", err)
					time.Sleep(jitter.Duration(5*time.Second, jitter.DefaultJitter))
				}
				continue
			}

			if notif != nil && notif.Channel == "outbox_pending" {
				w.logger.Debugf("received outbox notification, draining outbox events")
				for {
					hasMore, err := w.processBatch(ctx)
					if err != nil {
						w.logger.Warnf("batch processing failed: %v", err)
						break
					}
					if !hasMore {
						break
					}
				}
			}
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, usecase.FieldChunkServedEvent, 10)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			w.logger.Warnf("relay failed for event %s: %v", event.EventID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return true, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	switch event.EventType {
	case usecase.FieldChunkServedEvent:
		w.logFieldChunkServed(event)
	default:
		w.logger.Warnf("relaying outbox row %d with unrecognized event type %q as raw bytes", event.ID, event.EventType)
	}

	if err := w.SendBytes(ctx, event.Key, event.Payload); err != nil {
		if isRetryableError(err) {
			return e.Wrap("temporary Kafka failure, event left in processing and not retried", err)
		}
		return e.Wrap("permanent Kafka failure", err)
	}
	return nil
}

// logFieldChunkServed unwraps a FieldChunkServedEvent payload to report the
// focal artwork and chunk count it covers, rather than relaying it as an
// opaque blob.
func (w *OutboxWorker) logFieldChunkServed(event *usecase.OutboxEvent) {
	var payload usecase.FieldChunkServedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		w.logger.Warnf("outbox row %d: could not decode field_chunk_served payload: %v", event.ID, err)
		return
	}
	w.logger.Debugf("relaying field_chunk_served for focal artwork %d covering %d chunk(s)", payload.FocalID, len(payload.Chunks))
}

func (w *OutboxWorker) SendBytes(ctx context.Context, key int64, payload []byte) error {
	return w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(key, payload))
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
