package worker

import (
	"errors"
	"testing"

	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/mocks"
	"github.com/streadway/amqp"
	"go.uber.org/mock/gomock"
)

// recordingAck 记录消息最终的确认方式
type recordingAck struct {
	acked    bool
	nacked   bool
	requeue  bool
	rejected bool
}

func (a *recordingAck) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAck) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func (a *recordingAck) Reject(tag uint64, requeue bool) error {
	a.rejected, a.requeue = true, requeue
	return nil
}

type fakeConsumer struct {
	declared string
	handler  func(amqp.Delivery)
}

func (f *fakeConsumer) DeclareQueue(name string) (amqp.Queue, error) {
	f.declared = name
	return amqp.Queue{Name: name}, nil
}

func (f *fakeConsumer) Consume(name string, handler func(amqp.Delivery)) error {
	f.handler = handler
	return nil
}

func delivery(body string) (amqp.Delivery, *recordingAck) {
	ack := &recordingAck{}
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body)}, ack
}

func TestPurgeWorkerHandle(t *testing.T) {
	t.Run("purges prefix and acks", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockObjectStore(ctrl)
		store.EXPECT().ListObjects(gomock.Any(), "datasets/imdb-1/").Return([]storage.ObjectInfo{
			{Key: "datasets/imdb-1/a.json"}, {Key: "datasets/imdb-1/b/c.md"},
		}, nil)
		store.EXPECT().RemoveObjects(gomock.Any(), []string{"datasets/imdb-1/a.json", "datasets/imdb-1/b/c.md"}).Return(nil)

		msg, ack := delivery(`{"datasetId":"imdb-1"}`)
		NewPurgeWorker(&fakeConsumer{}, store, "q").Handle(msg)
		if !ack.acked || ack.nacked || ack.rejected {
			t.Fatalf("ack state = %+v", ack)
		}
	})

	t.Run("storage failure requeues", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockObjectStore(ctrl)
		store.EXPECT().ListObjects(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		msg, ack := delivery(`{"datasetId":"imdb-1"}`)
		NewPurgeWorker(&fakeConsumer{}, store, "q").Handle(msg)
		if !ack.nacked || !ack.requeue || ack.acked {
			t.Fatalf("ack state = %+v", ack)
		}
	})

	for _, body := range []string{`not json`, `{}`} {
		t.Run("malformed "+body, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockObjectStore(ctrl)

			msg, ack := delivery(body)
			NewPurgeWorker(&fakeConsumer{}, store, "q").Handle(msg)
			if !ack.rejected || ack.requeue {
				t.Fatalf("ack state = %+v", ack)
			}
		})
	}
}

func TestPurgeWorkerStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	consumer := &fakeConsumer{}
	w := NewPurgeWorker(consumer, mocks.NewMockObjectStore(ctrl), "dataset.purge")
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if consumer.declared != "dataset.purge" || consumer.handler == nil {
		t.Fatalf("consumer = %+v", consumer)
	}
}
