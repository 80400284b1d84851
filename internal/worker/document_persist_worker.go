package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/model"
	"cmp-dialogue/internal/platform/rabbitmq"
	"cmp-dialogue/internal/vectorstore"
)

type DocumentSaver interface {
	Save(ctx context.Context, docs []model.Document) error
}

// DocumentPersistWorker consumes queued documents and saves them to the
// vector store.
type DocumentPersistWorker struct {
	conn      *amqp.Connection
	saver     DocumentSaver
	queueName string
	log       logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDocumentPersistWorker(conn *amqp.Connection, saver DocumentSaver, queueName string, log logger.Logger) *DocumentPersistWorker {
	if log == nil {
		log = logger.NewNop()
	}
	return &DocumentPersistWorker{
		conn:      conn,
		saver:     saver,
		queueName: queueName,
		log:       log,
	}
}

func (w *DocumentPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.dispatch(workerCtx, d)
			}
		}
	}()

	w.log.Info("worker", "document persist worker started", map[string]interface{}{"queue": w.queueName})
	return nil
}

func (w *DocumentPersistWorker) dispatch(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errUndecodable) || errors.Is(err, vectorstore.ErrEmptyDocument):
		w.log.Error("worker", "drop document message", map[string]interface{}{"error": err})
		_ = d.Nack(false, false)
	default:
		// one redelivery before the message is dropped
		requeue := !d.Redelivered
		w.log.Error("worker", "persist documents failed", map[string]interface{}{
			"requeue": requeue,
			"error":   err,
		})
		_ = d.Nack(false, requeue)
	}
}

var errUndecodable = errors.New("undecodable document message")

// Handle decodes one message body and saves its documents.
func (w *DocumentPersistWorker) Handle(ctx context.Context, body []byte) error {
	var docs []model.Document
	if err := json.Unmarshal(body, &docs); err != nil {
		return fmt.Errorf("%w: %v", errUndecodable, err)
	}
	return w.saver.Save(ctx, docs)
}

func (w *DocumentPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
