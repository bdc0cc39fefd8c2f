package events

import (
	"context"
	"fmt"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/identity"
	"ticketcore/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	CreateEvent(ctx context.Context, actor identity.Actor, req CreateEventRequest) (*Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	ListOrganizerEvents(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) ([]Event, error)
	UpdateStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, status EventStatus) (*Event, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) CreateEvent(ctx context.Context, actor identity.Actor, req CreateEventRequest) (*Event, error) {
	organizerID := actor.UserID
	if req.OrganizerID != nil {
		if !actor.IsAdmin() && *req.OrganizerID != actor.UserID {
			return nil, apperr.Forbidden("cannot create events for another organizer")
		}
		organizerID = *req.OrganizerID
	}
	if organizerID == uuid.Nil {
		return nil, apperr.InvalidInput("organizer is required")
	}

	paymentModel := req.PaymentModel
	if paymentModel == "" {
		paymentModel = PaymentModelPayAsYouSell
	}

	event := &Event{
		ID:           uuid.New(),
		OrganizerID:  organizerID,
		Name:         req.Name,
		StartsAt:     req.StartsAt,
		IsFree:       req.IsFree,
		PaymentModel: paymentModel,
		Status:       EventStatusDraft,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.InfoContext(ctx, "Event Created", "event_id", event.ID.String(), "organizer_id", organizerID.String())
	return event, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOrganizerEvents(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) ([]Event, error) {
	if !actor.Owns(organizerID) {
		return nil, apperr.Forbidden("cannot list another organizer's events")
	}
	return s.repo.ListByOrganizer(ctx, organizerID)
}

func (s *service) UpdateStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, status EventStatus) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(event.OrganizerID) {
		return nil, apperr.Forbidden("only the event organizer can change its status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	event.Status = status
	return event, nil
}
