package ecs

import (
	"fmt"
	"reflect"
)

type InvalidEntityError struct {
	Entity Entity
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("invalid entity handle {index: %d, version: %d}", e.Entity.Index, e.Entity.Version)
}

type AlreadyDestroyedError struct {
	Entity Entity
}

func (e AlreadyDestroyedError) Error() string {
	return fmt.Sprintf("entity {index: %d, version: %d} already destroyed", e.Entity.Index, e.Entity.Version)
}

type EntityLimitError struct {
	Max uint32
}

func (e EntityLimitError) Error() string {
	return fmt.Sprintf("entity limit reached (%d)", e.Max)
}

type ComponentExistsError struct {
	Type reflect.Type
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %v", e.Type)
}

type ComponentNotFoundError struct {
	Type reflect.Type
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %v", e.Type)
}

type ComponentLimitError struct {
	Type reflect.Type
}

func (e ComponentLimitError) Error() string {
	return fmt.Sprintf("component type limit reached (%d), cannot register %v", MaxComponentTypes, e.Type)
}
