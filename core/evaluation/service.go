package evaluation

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
)

var nowFunc = time.Now // mockable

// Service owns the record collection: creation, listing, interchange and backups.
// Load-modify-save sequences are serialized within the process; two processes sharing
// a slot still race and the last Save wins.
type Service struct {
	store    Store
	codec    *Codec
	validate *validator.Validate
	logger   core.Logger
	mu       sync.Mutex
}

func NewService(store Store, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{
		store:    store,
		codec:    NewCodec(validate),
		validate: validate,
		logger:   logger,
	}
}

func (svc *Service) Codec() *Codec {
	return svc.codec
}

// List returns the stored collection, in storage order.
func (svc *Service) List(ctx context.Context) ([]Record, error) {
	records, err := svc.store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading records")
	}
	return records, nil
}

// Create validates nr, assigns it a new id and appends it to the collection.
func (svc *Service) Create(ctx context.Context, nr NewRecord) (Record, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:                      ID(uuid.New().String()),
		SessionNumber:           nr.SessionNumber,
		Date:                    nr.Date,
		GroupName:               nr.GroupName,
		DuringParticipation:     nr.DuringParticipation,
		BeforeMixedInteractions: nr.BeforeMixedInteractions,
		AfterMixedInteractions:  nr.AfterMixedInteractions,
		BeforeStereotypes:       nr.BeforeStereotypes,
		AfterStereotypes:        nr.AfterStereotypes,
		Notes:                   nr.Notes,
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	existing, err := svc.store.Load(ctx)
	if err != nil {
		return Record{}, errors.Wrap(err, "loading records")
	}
	if err := svc.store.Save(ctx, Merge(existing, []Record{rec})); err != nil {
		return Record{}, errors.Wrap(err, "saving records")
	}
	svc.logger.Info("evaluation record created", map[string]interface{}{"id": rec.ID, "group": rec.GroupName})
	return rec, nil
}

// Stats summarizes the stored collection.
func (svc *Service) Stats(ctx context.Context) (Summary, error) {
	records, err := svc.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}
