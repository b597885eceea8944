package recon

import (
	"fmt"
	"sync"

	"github.com/nexbill/payments/internal/models"
)

// keyedMutex serializes payment mutations per parent document. Entries are
// never evicted; the map is bounded by the number of documents that ever
// received a payment in this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(family models.DocumentType, id uint) func() {
	key := fmt.Sprintf("%s/%d", family, id)
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*sync.Mutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
