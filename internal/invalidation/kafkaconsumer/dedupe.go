package kafkaconsumer

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// idDedupe remembers recently applied event IDs. Events without an ID are
// never treated as duplicates.
type idDedupe struct {
	lru *lru.Cache[string, struct{}]
}

func newIDDedupe(size int) *idDedupe {
	c, _ := lru.New[string, struct{}](size)
	return &idDedupe{lru: c}
}

func (d *idDedupe) applied(id string) bool {
	if id == "" {
		return false
	}
	return d.lru.Contains(id)
}

func (d *idDedupe) mark(id string) {
	if id != "" {
		d.lru.Add(id, struct{}{})
	}
}
