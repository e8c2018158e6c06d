// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package container implements component C15: a lazy service registry
// used by cmd/hive-rag-server to wire components without a fixed
// construction order. No pack example does runtime service location
// with lazy construction and cycle detection, so this is hand-written.
package container

import (
	"fmt"
	"sync"
)

// Factory lazily constructs a named service. It receives the container
// so it can pull its own dependencies via Get.
type Factory func(c *Container) (any, error)

type entry struct {
	factory   Factory
	singleton bool
	instance  any
	built     bool
	mu        sync.Mutex
}

// Container is a lazy, cycle-detecting service registry.
type Container struct {
	mu       sync.Mutex
	entries  map[string]*entry
	building map[string]bool // detects cycles during Get
}

// New constructs an empty container.
func New() *Container {
	return &Container{
		entries:  make(map[string]*entry),
		building: make(map[string]bool),
	}
}

// Register adds a named factory. singleton=true caches the first built
// instance; singleton=false calls factory on every Get.
func (c *Container) Register(name string, factory Factory, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{factory: factory, singleton: singleton}
}

// RegisterInstance registers an already-constructed value under name,
// always returned as-is by Get.
func (c *Container) RegisterInstance(name string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &entry{singleton: true, instance: instance, built: true}
}

// Has reports whether name is registered.
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[name]
	return ok
}

// List returns every registered service name.
func (c *Container) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	return names
}

// Get resolves name, constructing it (and caching it, if singleton) on
// first use. Construction for a given name is serialized; a factory
// that transitively calls Get(name) on itself returns a cycle error
// naming the offending service instead of deadlocking.
func (c *Container) Get(name string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("container: service %q is not registered", name)
	}
	if c.building[name] {
		c.mu.Unlock()
		return nil, fmt.Errorf("container: cycle detected constructing service %q", name)
	}
	c.building[name] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.building, name)
		c.mu.Unlock()
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.built {
		return e.instance, nil
	}

	instance, err := e.factory(c)
	if err != nil {
		return nil, fmt.Errorf("container: failed to construct service %q: %w", name, err)
	}

	if e.singleton {
		e.instance = instance
		e.built = true
	}
	return instance, nil
}
