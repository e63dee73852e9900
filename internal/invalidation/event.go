// Package invalidation carries address corrections that must evict cached geocodes.
package invalidation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxAddresses = 1000

type Event struct {
	// optional; replays of an already applied ID are skipped
	ID        string    `json:"id,omitempty"`
	Version   int       `json:"version"`
	Op        string    `json:"op"`
	Addresses []string  `json:"addresses"`
	TS        time.Time `json:"ts"`
	Source    string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return errors.New("version must be 1")
	}
	switch e.Op {
	case "update", "delete":
	default:
		return errors.New("op must be update|delete")
	}
	if e.TS.IsZero() {
		return errors.New("ts is required")
	}
	if len(e.Addresses) == 0 {
		return errors.New("addresses is required")
	}
	if len(e.Addresses) > maxAddresses {
		return fmt.Errorf("at most %d addresses per event", maxAddresses)
	}
	for i, a := range e.Addresses {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("addresses[%d] is empty", i)
		}
	}
	return nil
}
