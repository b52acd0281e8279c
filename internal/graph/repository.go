package graph

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewEntityRepository wires a typed repository for Entity records, same
// construction idiom as the teacher's internal/environments.NewEnvironmentRepository.
func NewEntityRepository(db *bun.DB) repository.Repository[*Entity] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entity]{
		NewRecord: func() *Entity { return &Entity{} },
		GetID: func(e *Entity) uuid.UUID {
			return e.ID
		},
		SetID: func(e *Entity, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "permalink"
		},
		GetIdentifierValue: func(e *Entity) string {
			return e.Permalink
		},
	})
}

// NewObservationRepository wires a typed repository for Observation records.
func NewObservationRepository(db *bun.DB) repository.Repository[*Observation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Observation]{
		NewRecord: func() *Observation { return &Observation{} },
		GetID: func(o *Observation) uuid.UUID {
			return o.ID
		},
		SetID: func(o *Observation, id uuid.UUID) {
			o.ID = id
		},
	})
}

// NewRelationRepository wires a typed repository for Relation records.
func NewRelationRepository(db *bun.DB) repository.Repository[*Relation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Relation]{
		NewRecord: func() *Relation { return &Relation{} },
		GetID: func(r *Relation) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Relation, id uuid.UUID) {
			r.ID = id
		},
	})
}
