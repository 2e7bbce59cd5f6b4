// Package usage is the best-effort audit sink for tool invocations.
package usage

import (
	"sync"

	"gorm.io/gorm"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// Recorder persists usage records on a background goroutine. Record never
// blocks the response path: when the queue is full the record is dropped
// with a logged warning, and a failed insert is logged and swallowed.
type Recorder struct {
	db      *gorm.DB
	queue   chan models.UsageRecord
	wg      sync.WaitGroup
	closing sync.Once
}

// NewRecorder starts a recorder with the given queue capacity
func NewRecorder(db *gorm.DB, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &Recorder{
		db:    db,
		queue: make(chan models.UsageRecord, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record enqueues one usage record without blocking
func (r *Recorder) Record(record models.UsageRecord) {
	select {
	case r.queue <- record:
	default:
		logging.LogWarningf(nil, "Usage queue full, dropping record for tool %s", record.ToolName)
	}
}

// Close stops the recorder after draining queued records
func (r *Recorder) Close() {
	r.closing.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for record := range r.queue {
		if err := r.db.Create(&record).Error; err != nil {
			logging.LogErrorf(err, "Failed to persist usage record for tool %s", record.ToolName)
		}
	}
}
