// Package kafka applies indexer operations published on a Kafka topic.
//
// Each record value is a JSON Message:
//
//	{"operation": "index",  "data": [{"id": "a", "embedding": [1, 3], "tags": {"price": 1.0}}]}
//	{"operation": "update", "data": [{"id": "a", "embedding": [2, 3]}]}
//	{"operation": "delete", "parameters": {"ids": ["a", "b"]}}
//	{"operation": "clear"}
//
// The Consumer reads with a consumer group, applies one record at a time through the
// same indexer the HTTP transport uses and commits the offset afterwards. Trace
// context found in the record headers is continued.
//
// # Failure handling
//
// Records that can never be applied (malformed JSON, an unknown operation, wrong
// vector dimensions, invalid parameters) are written to Config.DeadLetterTopic with
// the headers x-dead-letter-reason, x-original-topic and x-original-offset, then
// committed. Without a dead-letter topic they are logged and skipped.
//
// Any other failure, typically an unreachable engine, stops the consumer without
// committing. Under fx the application then shuts down with exit code 1 and the
// record is delivered again to the next process of the group.
//
// # Publishing
//
// Producer writes Messages to the topic, injecting the active trace:
//
//	p, err := kafka.NewProducer(cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	err = p.Publish(ctx, "catalog", kafka.Message{Operation: "index", Data: docs})
package kafka
