// Package registry maps task identifiers to their artifact producers. The
// mapping is resolved once at construction and never altered at runtime.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
)

const (
	registryEmptyMessageConstant             = "registry requires at least one producer"
	registryBlankIdentifierMessageConstant   = "registry entries require a task identifier"
	registryNilProducerTemplateConstant      = "registry entry %q has no producer"
	registryDuplicateProducerTemplateConstant = "producer for task %q registered multiple times"
)

// Registry is a fixed mapping from task identifier to producer.
type Registry struct {
	producers map[string]orchestrate.Producer
}

// New constructs a Registry from the supplied producer mapping.
func New(producers map[string]orchestrate.Producer) (*Registry, error) {
	if len(producers) == 0 {
		return nil, errors.New(registryEmptyMessageConstant)
	}

	entries := make(map[string]orchestrate.Producer, len(producers))
	for taskID, producer := range producers {
		trimmedIdentifier := strings.TrimSpace(taskID)
		if len(trimmedIdentifier) == 0 {
			return nil, errors.New(registryBlankIdentifierMessageConstant)
		}
		if producer == nil {
			return nil, fmt.Errorf(registryNilProducerTemplateConstant, trimmedIdentifier)
		}
		if _, exists := entries[trimmedIdentifier]; exists {
			return nil, fmt.Errorf(registryDuplicateProducerTemplateConstant, trimmedIdentifier)
		}
		entries[trimmedIdentifier] = producer
	}

	return &Registry{producers: entries}, nil
}

// Lookup resolves the producer for a task identifier.
func (registry *Registry) Lookup(taskID string) (orchestrate.Producer, bool) {
	producer, exists := registry.producers[taskID]
	return producer, exists
}

// TaskIDs lists registered task identifiers in deterministic order.
func (registry *Registry) TaskIDs() []string {
	identifiers := make([]string, 0, len(registry.producers))
	for taskID := range registry.producers {
		identifiers = append(identifiers, taskID)
	}
	sort.Strings(identifiers)
	return identifiers
}
