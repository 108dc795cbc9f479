package receiving

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetReceipt(ctx context.Context, id int64) (Receipt, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateReceipt(ctx context.Context, receipt Receipt) (int64, error)
	InsertLines(ctx context.Context, receiptID int64, lines []ReceiptLine) error
	GetReceiptForUpdate(ctx context.Context, id int64) (Receipt, error)
	UpdateReceiptStatus(ctx context.Context, id int64, status ReceiptStatus) error
	// InsertBatches materialises finished receipt lines as finalized purchase
	// batches carrying the receipt's received_at as the FIFO ordering key.
	InsertBatches(ctx context.Context, receipt Receipt) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates purchase receipt flows.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs receiving service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// CreateReceiptInput describes creation payload.
type CreateReceiptInput struct {
	Number     string
	SupplierID int64
	ReceivedAt time.Time
	Note       string
	ActorID    int64
	Lines      []ReceiptLineInput
}

// ReceiptLineInput describes one received lot.
type ReceiptLineInput struct {
	VariantID int64
	Qty       int64
	UnitCost  string
}

// CreateReceipt persists receipt header and lines in DRAFT.
func (s *Service) CreateReceipt(ctx context.Context, input CreateReceiptInput) (Receipt, error) {
	if len(input.Lines) == 0 {
		return Receipt{}, fmt.Errorf("%w: minimal 1 line", ErrValidation)
	}
	lines := make([]ReceiptLine, 0, len(input.Lines))
	for _, lineInput := range input.Lines {
		line, err := parseLine(lineInput)
		if err != nil {
			return Receipt{}, err
		}
		lines = append(lines, line)
	}
	if input.Number == "" {
		input.Number = generateNumber("RCV")
	}
	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	receipt := Receipt{
		Number:     input.Number,
		SupplierID: input.SupplierID,
		Status:     ReceiptStatusDraft,
		ReceivedAt: receivedAt,
		Note:       input.Note,
		CreatedBy:  input.ActorID,
	}
	var receiptID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		receiptID = id
		return tx.InsertLines(ctx, id, lines)
	})
	if err != nil {
		return Receipt{}, err
	}
	return s.repo.GetReceipt(ctx, receiptID)
}

// PostReceipt finishes a draft receipt and materialises its lines as finalized
// purchase batches. From this point the stock participates in allocation.
func (s *Service) PostReceipt(ctx context.Context, id, actorID int64) (Receipt, error) {
	key := fmt.Sprintf("receiving:post:%d", id)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "receiving"); err != nil {
			return Receipt{}, err
		}
		insertedKey = true
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receipt, err := tx.GetReceiptForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if receipt.Status != ReceiptStatusDraft {
			return fmt.Errorf("%w: cannot post %s receipt", ErrInvalidState, receipt.Status)
		}
		if len(receipt.Lines) == 0 {
			return fmt.Errorf("%w: receipt has no lines", ErrValidation)
		}
		if err := tx.UpdateReceiptStatus(ctx, id, ReceiptStatusFinished); err != nil {
			return err
		}
		receipt.Status = ReceiptStatusFinished
		return tx.InsertBatches(ctx, receipt)
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Receipt{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "receiving:post",
			Entity:   "purchase_receipt",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"receipt_id": id},
		})
	}
	return s.repo.GetReceipt(ctx, id)
}

// CancelReceipt cancels a draft receipt. Finished receipts stay immutable
// because batches may already be referenced by allocations.
func (s *Service) CancelReceipt(ctx context.Context, id, actorID int64) (Receipt, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		receipt, err := tx.GetReceiptForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if receipt.Status != ReceiptStatusDraft {
			return fmt.Errorf("%w: cannot cancel %s receipt", ErrInvalidState, receipt.Status)
		}
		return tx.UpdateReceiptStatus(ctx, id, ReceiptStatusCancelled)
	})
	if err != nil {
		return Receipt{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "receiving:cancel",
			Entity:   "purchase_receipt",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return s.repo.GetReceipt(ctx, id)
}

// GetReceipt loads one receipt with lines.
func (s *Service) GetReceipt(ctx context.Context, id int64) (Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

func parseLine(input ReceiptLineInput) (ReceiptLine, error) {
	if input.VariantID == 0 {
		return ReceiptLine{}, fmt.Errorf("%w: variant required", ErrValidation)
	}
	if input.Qty <= 0 {
		return ReceiptLine{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	cost, err := parseCost(input.UnitCost)
	if err != nil {
		return ReceiptLine{}, err
	}
	return ReceiptLine{VariantID: input.VariantID, Qty: input.Qty, UnitCost: cost}, nil
}

func generateNumber(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102"), suffix)
}
