package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/unclebandit/campaign-crm/internal/model"
)

// ErrDeliveryFailed is what the simulated vendor reports for a lost message.
var ErrDeliveryFailed = errors.New("mock sending failed")

// Sender hands one personalized message to the messaging vendor.
type Sender interface {
	Send(ctx context.Context, to model.Customer, message string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to model.Customer, message string) error

func (f SenderFunc) Send(ctx context.Context, to model.Customer, message string) error {
	return f(ctx, to, message)
}

// RandomSender simulates a vendor that accepts a message with a fixed probability.
type RandomSender struct {
	successRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSender(successRate float64, seed int64) *RandomSender {
	return &RandomSender{
		successRate: successRate,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

func (s *RandomSender) Send(_ context.Context, _ model.Customer, _ string) error {
	s.mu.Lock()
	r := s.rnd.Float64()
	s.mu.Unlock()

	if r < s.successRate {
		return nil
	}
	return ErrDeliveryFailed
}
