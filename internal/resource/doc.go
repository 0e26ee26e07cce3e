// Package resource bounds the memory, concurrency and IO used while writing
// and reading container files.
//
//	┌─────────────────┬─────────────────┬─────────────────────────┐
//	│  Memory Limit   │  Workers (sem)  │  IO Rate Limiter        │
//	│  (fail-fast)    │  (blocking)     │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireMemory  │  AcquireWorker  │  WaitIO                 │
//	│  ReleaseMemory  │  ReleaseWorker  │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// The block cache reserves memory for every cached block and skips caching
// when the budget is exhausted. Record compression runs on at most
// MaxWorkers goroutines. Store writers call WaitIO before each write.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	    MaxWorkers:       4,
//	})
//
// All methods are safe on a nil *Controller and impose no limits there.
package resource
