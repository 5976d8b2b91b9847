package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"teamtasks-backend/internal/metrics"
	"teamtasks-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real NotificationSender backed by webpush-go.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the subscription persistence the pool needs.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

type pushPayload struct {
	Type    model.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	TaskID  *int64                 `json:"task_id,omitempty"`
}

const jobsPerWorker = 64

// WorkerPool delivers notifications to users' browser push subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan model.Notification
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

func NewWorkerPool(size int, s SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Notification, size*jobsPerWorker),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case n := <-wp.jobs:
			wp.sendNotificationsForUser(ctx, n)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Enqueue schedules n for web push. It drops the job when the queue is full.
func (wp *WorkerPool) Enqueue(n model.Notification) {
	select {
	case wp.jobs <- n:
	default:
		metrics.WebPushes.WithLabelValues("queue_full").Inc()
		log.Printf("web push queue full, dropping notification %d", n.ID)
	}
}

func (wp *WorkerPool) sendNotificationsForUser(ctx context.Context, n model.Notification) {
	subscriptions, err := wp.store.ListSubscriptions(ctx, n.UserID)
	if err != nil {
		log.Printf("Error fetching subscriptions for user %d: %v", n.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(pushPayload{Type: n.Type, Title: n.Title, Message: n.Message, TaskID: n.TaskID})
	if err != nil {
		log.Printf("Error encoding notification %d: %v", n.ID, err)
		return
	}

	log.Printf("Sending %d web push notifications for user %d", len(subscriptions), n.UserID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		metrics.WebPushes.WithLabelValues("error").Inc()
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Gone means the browser dropped the subscription.
	if resp.StatusCode == http.StatusGone {
		metrics.WebPushes.WithLabelValues("gone").Inc()
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return
	}
	metrics.WebPushes.WithLabelValues("sent").Inc()
}
