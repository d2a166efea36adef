package logger

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var requestSeq atomic.Uint64

// GenerateRequestID tags one inbound frame or HTTP request.
// Format: yyyyMMddHHmmss-seq-uuidprefix, e.g. 20250511120000-000042-9f1c2a7e
func GenerateRequestID() string {
	n := requestSeq.Add(1) % 1_000_000
	return fmt.Sprintf("%s-%06d-%s", time.Now().Format("20060102150405"), n, uuid.NewString()[:8])
}
