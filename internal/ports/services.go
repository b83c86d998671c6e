package ports

import (
	"time"

	"store-order-hub/internal/domain"
)

// EncryptionService seals credential secrets at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SyncPublisher broadcasts sync attempts to live subscribers
type SyncPublisher interface {
	Publish(event *domain.SyncEvent)
}

// Sync outcomes reported to SyncMetrics
const (
	SyncOutcomeSuccess = "success"
	SyncOutcomeFailure = "failure"
)

// SyncMetrics records sync and probe outcomes
type SyncMetrics interface {
	ObserveSync(platform domain.Platform, outcome string, duration time.Duration)
	ObserveProbe(platform domain.Platform, status domain.ConnectionStatus)
}
