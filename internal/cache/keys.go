package cache

import "fmt"

// ResultKey is the hash holding the job record for a content fingerprint.
func ResultKey(fingerprint string) string {
	return fmt.Sprintf("finance_result:%s", fingerprint)
}

func QueuePendingKey(queue string) string {
	return fmt.Sprintf("queue:%s:pending", queue)
}

func QueueProcessingKey(queue string) string {
	return fmt.Sprintf("queue:%s:processing", queue)
}

func QueueCounterKey(queue, outcome string) string {
	return fmt.Sprintf("queue:%s:%s", queue, outcome)
}

func RateLimitKey(scope, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, client)
}

func SearchResultKey(queryHash string) string {
	return fmt.Sprintf("search:serper:%s", queryHash)
}

// ModelRPMKey buckets LLM calls per provider per wall-clock minute.
func ModelRPMKey(provider string, minute int64) string {
	return fmt.Sprintf("llm:rpm:%s:%d", provider, minute)
}
