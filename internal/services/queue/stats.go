package queue

func (q *QueueService) GetQueueStats() map[string]interface{} {
	return map[string]interface{}{
		"messages":  len(q.jobs),
		"capacity":  cap(q.jobs),
		"consumers": q.consumers.Load(),
		"processed": q.processed.Load(),
		"failed":    q.failed.Load(),
	}
}

// HealthCheck reports whether the queue accepts jobs and has a consumer.
func (q *QueueService) HealthCheck() string {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	if closed {
		return "unhealthy: queue closed"
	}
	if q.consumers.Load() == 0 {
		return "unhealthy: no worker running"
	}
	return "healthy"
}
