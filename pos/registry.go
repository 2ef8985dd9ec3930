package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/metrics"
	"github.com/sirupsen/logrus"
)

var ErrCartNotFound = errors.New("cart not found")

type cartKey struct {
	businessId string
	cartId     string
}

// Registry holds the open carts of every business. Idle carts expire after ttl.
type Registry struct {
	mu     sync.Mutex
	carts  map[cartKey]*Cart
	ttl    time.Duration
	policy Policy
	now    func() time.Time
}

func NewRegistry(ttl time.Duration, policy Policy) *Registry {
	return &Registry{carts: map[cartKey]*Cart{}, ttl: ttl, policy: policy, now: time.Now}
}

func (r *Registry) Create(businessId string) *Cart {
	cart := NewCart(uuid.NewString(), businessId, r.policy)
	cart.updatedAt = r.now()
	r.mu.Lock()
	r.carts[cartKey{businessId, cart.Id}] = cart
	r.mu.Unlock()
	return cart
}

func (r *Registry) Get(businessId string, cartId string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[cartKey{businessId, cartId}]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

func (r *Registry) Discard(businessId string, cartId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := cartKey{businessId, cartId}
	if _, ok := r.carts[key]; !ok {
		return ErrCartNotFound
	}
	delete(r.carts, key)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Sweep drops carts idle for longer than ttl and returns how many went.
// A cart in the middle of a checkout is never dropped.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, cart := range r.carts {
		touched, busy := cart.lastTouched()
		if busy || touched.After(cutoff) {
			continue
		}
		delete(r.carts, key)
		removed++
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	logger := config.GetLogger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := r.Sweep()
			metrics.SetOpenCarts(r.Len())
			if n > 0 {
				logger.WithFields(logrus.Fields{
					"field":   "CartJanitor",
					"removed": n,
				}).Info("expired idle carts")
			}
		}
	}
}
