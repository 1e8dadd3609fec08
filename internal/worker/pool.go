package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studytube-backend/internal/models"
	"studytube-backend/internal/pipeline"
)

// Pool drains the content-processing queue with a fixed number of goroutines.
// Delivery is at-least-once: the SetNX job lock keeps concurrent workers off
// the same job, and downstream writes are idempotent upserts so a redelivered
// message is safe to re-run.
type Pool struct {
	redis       *redis.Client
	pipeline    *pipeline.Pipeline
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, p *pipeline.Pipeline, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		pipeline:    p,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, pipeline.QueueContentProcessing).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var msg models.JobMessage
		if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
			log.Printf("Worker %d: failed to parse job message: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", msg.JobID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (video: %s)", id, msg.JobID, msg.YoutubeID)

		// The pipeline persists its own terminal state; the worker only
		// observes the outcome. Failed jobs are not retried here, they are
		// re-enqueued externally through the reprocess endpoint.
		outcome := p.pipeline.Run(ctx, msg)
		if outcome.Failed() {
			log.Printf("Worker %d: job %s failed: %v", id, msg.JobID, outcome.Err)
		} else {
			log.Printf("Worker %d: job %s completed (%d chunks, %d vectors)",
				id, msg.JobID, outcome.ChunkCount, outcome.VectorsUpserted)
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}
