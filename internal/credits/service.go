package credits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticketcore/internal/notifications"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/txn"
	"ticketcore/pkg/logger"
	"ticketcore/pkg/metrics"

	"github.com/google/uuid"
)

type Service interface {
	// Allocate consumes capacity credits. The check and the deduction happen
	// under one row lock, so concurrent tier edits cannot both pass the balance check.
	Allocate(ctx context.Context, req AllocationRequest) (*OrganizerCredits, error)
	Refund(ctx context.Context, req AllocationRequest) (*OrganizerCredits, error)

	GetBalance(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) (*OrganizerCredits, error)
	ListTransactions(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) ([]CreditTransaction, error)

	RequestPurchase(ctx context.Context, actor identity.Actor, organizerID uuid.UUID, credits int) (*CreditTransaction, error)
	ConfirmPurchase(ctx context.Context, transactionID uuid.UUID, paymentID string) (*CreditTransaction, error)
	FailPurchase(ctx context.Context, transactionID uuid.UUID, reason string) (*CreditTransaction, error)
}

type service struct {
	repo      Repository
	txm       txn.Manager
	cfg       config.CreditConfig
	publisher notifications.Publisher
	log       *logger.Logger
}

func NewService(repo Repository, txm txn.Manager, cfg config.CreditConfig, publisher notifications.Publisher, log *logger.Logger) Service {
	return &service{repo: repo, txm: txm, cfg: cfg, publisher: publisher, log: log}
}

func (s *service) Allocate(ctx context.Context, req AllocationRequest) (*OrganizerCredits, error) {
	if req.Quantity <= 0 {
		return nil, apperr.InvalidInput("allocation quantity must be positive")
	}

	var balance *OrganizerCredits
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.repo.GetForUpdate(ctx, req.OrganizerID)
		if err != nil {
			return fmt.Errorf("failed to lock organizer credits: %w", err)
		}

		// First credit-using event claims the free grant
		if balance.bindFirstEvent(req.EventID, s.cfg.FreeFirstEventCredits) {
			s.log.InfoContext(ctx, "Free credits granted",
				"organizer_id", req.OrganizerID.String(),
				"event_id", req.EventID.String(),
				"credits", s.cfg.FreeFirstEventCredits,
			)
		}

		// Check balance
		available := balance.Available(req.EventID)
		if available < req.Quantity {
			return apperr.Credit(apperr.CodeInsufficientCredits,
				"requested %d credits but only %d are available for this event", req.Quantity, available).
				WithDetail("requested", req.Quantity).
				WithDetail("available", available)
		}

		// Free credits are spent before purchased ones
		balance.deduct(req.EventID, req.Quantity)
		return s.persist(ctx, balance, req, -req.Quantity)
	})
	if err != nil {
		return nil, err
	}

	metrics.CreditMovements.WithLabelValues("allocate").Add(float64(req.Quantity))
	s.log.LogCreditsAllocated(ctx, req.OrganizerID.String(), req.EventID.String(), -req.Quantity, balance.CreditsRemaining)
	return balance, nil
}

func (s *service) Refund(ctx context.Context, req AllocationRequest) (*OrganizerCredits, error) {
	if req.Quantity <= 0 {
		return nil, apperr.InvalidInput("refund quantity must be positive")
	}

	var balance *OrganizerCredits
	var returned int
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.repo.GetForUpdate(ctx, req.OrganizerID)
		if err != nil {
			return fmt.Errorf("failed to lock organizer credits: %w", err)
		}

		// Never return more than was used
		returned = balance.refund(req.EventID, req.Quantity)
		if returned < req.Quantity {
			s.log.WarnContext(ctx, "Credit refund clamped to used balance",
				"organizer_id", req.OrganizerID.String(),
				"requested", req.Quantity,
				"returned", returned,
			)
		}
		if returned == 0 {
			return nil
		}
		return s.persist(ctx, balance, req, returned)
	})
	if err != nil {
		return nil, err
	}

	metrics.CreditMovements.WithLabelValues("refund").Add(float64(returned))
	s.log.LogCreditsAllocated(ctx, req.OrganizerID.String(), req.EventID.String(), returned, balance.CreditsRemaining)
	return balance, nil
}

func (s *service) persist(ctx context.Context, balance *OrganizerCredits, req AllocationRequest, delta int) error {
	if err := s.repo.Save(ctx, balance); err != nil {
		return fmt.Errorf("failed to save organizer credits: %w", err)
	}
	allocation := &CreditAllocation{
		ID:          uuid.New(),
		OrganizerID: req.OrganizerID,
		EventID:     req.EventID,
		TierID:      req.TierID,
		Delta:       delta,
	}
	if err := s.repo.CreateAllocation(ctx, allocation); err != nil {
		return fmt.Errorf("failed to record credit allocation: %w", err)
	}
	return nil
}

func (s *service) GetBalance(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) (*OrganizerCredits, error) {
	if !actor.Owns(organizerID) {
		return nil, apperr.Forbidden("cannot read another organizer's credits")
	}
	return s.repo.Get(ctx, organizerID)
}

func (s *service) ListTransactions(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) ([]CreditTransaction, error) {
	if !actor.Owns(organizerID) {
		return nil, apperr.Forbidden("cannot read another organizer's credit transactions")
	}
	return s.repo.ListTransactions(ctx, organizerID)
}

// RequestPurchase opens a PENDING purchase priced at the configured rate
func (s *service) RequestPurchase(ctx context.Context, actor identity.Actor, organizerID uuid.UUID, credits int) (*CreditTransaction, error) {
	if !actor.Owns(organizerID) {
		return nil, apperr.Forbidden("cannot buy credits for another organizer")
	}
	if credits <= 0 {
		return nil, apperr.InvalidInput("credits must be positive")
	}

	tx := &CreditTransaction{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Credits:     credits,
		AmountCents: int64(credits) * s.cfg.PriceCentsPerCredit,
		Status:      TransactionPending,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create credit transaction: %w", err)
	}
	return tx, nil
}

// ConfirmPurchase grants purchased credits once. Replayed confirmations return the completed transaction.
func (s *service) ConfirmPurchase(ctx context.Context, transactionID uuid.UUID, paymentID string) (*CreditTransaction, error) {
	var tx *CreditTransaction
	var granted bool
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.repo.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}

		// Replays and failed purchases
		switch tx.Status {
		case TransactionCompleted:
			return nil
		case TransactionFailed:
			return apperr.State(apperr.CodePurchaseNotPending, "credit purchase %s already failed", tx.ID)
		}

		// Grant the credits
		balance, err := s.repo.GetForUpdate(ctx, tx.OrganizerID)
		if err != nil {
			return fmt.Errorf("failed to lock organizer credits: %w", err)
		}
		balance.addPurchased(tx.Credits)
		if err := s.repo.Save(ctx, balance); err != nil {
			return fmt.Errorf("failed to save organizer credits: %w", err)
		}

		// Close the transaction
		now := time.Now().UTC()
		tx.Status = TransactionCompleted
		tx.PaymentID = paymentID
		tx.CompletedAt = &now
		if err := s.repo.SaveTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to save credit transaction: %w", err)
		}
		granted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if granted {
		metrics.CreditMovements.WithLabelValues("purchase").Add(float64(tx.Credits))
		s.log.InfoContext(ctx, "Credits Purchased",
			"organizer_id", tx.OrganizerID.String(),
			"credits", tx.Credits,
			"payment_id", paymentID,
		)
		notifications.PublishAsync(ctx, s.publisher, s.log,
			notifications.NewEventBuilder(notifications.EventCreditsPurchased).
				WithActor(tx.OrganizerID).
				With("transaction_id", tx.ID.String()).
				With("credits", tx.Credits).
				With("amount_cents", tx.AmountCents).
				Build())
	}
	return tx, nil
}

// FailPurchase marks a PENDING purchase FAILED; nothing was granted, so nothing is reversed
func (s *service) FailPurchase(ctx context.Context, transactionID uuid.UUID, reason string) (*CreditTransaction, error) {
	var tx *CreditTransaction
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.repo.GetTransactionForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Status == TransactionFailed {
			return nil
		}
		if tx.Status != TransactionPending {
			return apperr.State(apperr.CodePurchaseNotPending, "credit purchase %s is %s", tx.ID, tx.Status)
		}
		tx.Status = TransactionFailed
		tx.FailureReason = strings.TrimSpace(reason)
		return s.repo.SaveTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}
