// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Beacon

	// interval_max defaults to interval_min
	if b.IntervalMax == 0 {
		b.IntervalMax = b.IntervalMin
	}

	// duplicate UUIDs add bytes without adding information
	if len(b.ServiceUUIDs) > 1 {
		seen := make(map[uint16]bool, len(b.ServiceUUIDs))
		uuids := b.ServiceUUIDs[:0]
		for _, u := range b.ServiceUUIDs {
			if seen[u] {
				continue
			}
			seen[u] = true
			uuids = append(uuids, u)
		}
		b.ServiceUUIDs = uuids
	}
}
