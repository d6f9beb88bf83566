package poller

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oxygen78/BOT.github.io/internal/repository"
)

// Poller owns the two background duties of the order pipeline: publishing
// settled-order outbox rows to kafka and expiring invoiced orders whose
// tokens were never consumed.
type Poller struct {
	eventTick  time.Duration
	expiryTick time.Duration
	orderTTL   time.Duration
	repo       repository.Store
	writer     *kafka.Writer
}

func NewPoller(repo repository.Store, orderTTL time.Duration, brokers ...string) *Poller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-settled",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Poller{
		eventTick:  time.Second,
		expiryTick: time.Minute,
		orderTTL:   orderTTL,
		repo:       repo,
		writer:     w,
	}
}

func (p *Poller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	expiryTicker := time.NewTicker(p.expiryTick)
	defer eventTicker.Stop()
	defer expiryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.publishUnsentEvents(ctx)
		case <-expiryTicker.C:
			p.expireStaleOrders(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) Close() {
	if err := p.writer.Close(); err != nil {
		log.Printf("error closing kafka writer: %v", err)
	}
}

func (p *Poller) publishUnsentEvents(ctx context.Context) {
	events, err := p.repo.GetUnsentEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.Key),
			Value: event.Payload,
		})
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.repo.MarkEventSent(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as sent id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *Poller) expireStaleOrders(ctx context.Context) {
	expired, err := p.repo.ExpireStaleOrders(ctx, p.orderTTL)
	if err != nil {
		log.Printf("failed to expire stale orders: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("expired %d unconsumed orders older than %v", expired, p.orderTTL)
	}
}
