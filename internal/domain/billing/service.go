package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/carewave/hms/internal/domain/audit"
	"github.com/carewave/hms/internal/platform/db"
	"github.com/carewave/hms/internal/platform/notification"
	"github.com/carewave/hms/internal/platform/payment"
)

var (
	ErrBillNotFound      = errors.New("bill not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrBillAlreadyPaid   = errors.New("bill is already paid")
	ErrOverpayment       = errors.New("payment amount exceeds outstanding amount")
	ErrPaymentDeclined   = errors.New("payment was declined by the gateway")
	ErrPaymentNotPending = errors.New("payment is not pending")
)

var validModes = map[string]bool{
	ModeCash: true, ModeCard: true, ModeUPI: true, ModeInsurance: true, ModeCheque: true,
}

type Service struct {
	bills    BillRepository
	payments PaymentRepository
	pool     *pgxpool.Pool
	gateway  payment.Gateway
	auditor  *audit.Service
	notifier *notification.Manager
	log      zerolog.Logger
}

func NewService(bills BillRepository, payments PaymentRepository, pool *pgxpool.Pool,
	gateway payment.Gateway, auditor *audit.Service, notifier *notification.Manager,
	log zerolog.Logger) *Service {
	return &Service{
		bills:    bills,
		payments: payments,
		pool:     pool,
		gateway:  gateway,
		auditor:  auditor,
		notifier: notifier,
		log:      log,
	}
}

// CreateBill computes totals from the line items and discount, assigns a
// bill number, and persists the bill with its items in one transaction.
// Bills are never deleted, only status-transitioned.
func (s *Service) CreateBill(ctx context.Context, req *CreateBillRequest, createdBy *uuid.UUID) (*Bill, error) {
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}
	for _, item := range req.Items {
		if item.Description == "" {
			return nil, fmt.Errorf("description is required on every line item")
		}
	}

	totals, err := ComputeTotals(req.Items, req.Discount)
	if err != nil {
		return nil, err
	}

	b := &Bill{
		PatientID:      req.PatientID,
		AppointmentID:  req.AppointmentID,
		Subtotal:       totals.Subtotal,
		TotalTax:       totals.TotalTax,
		TotalAmount:    totals.TotalAmount,
		DiscountAmount: totals.DiscountAmount,
		FinalAmount:    totals.FinalAmount,
		PaidAmount:     decimal.Zero,
		Status:         BillPending,
		DueDate:        req.DueDate,
		Items:          req.Items,
		CreatedBy:      createdBy,
	}
	if req.Discount != nil {
		b.DiscountReason = req.Discount.Reason
	}

	err = db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		seq, err := s.bills.NextBillSequence(ctx)
		if err != nil {
			return fmt.Errorf("allocate bill number: %w", err)
		}
		b.BillNumber = fmt.Sprintf("BILL-%06d", seq)
		return s.bills.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, createdBy, "create", b.ID, fmt.Sprintf("bill %s created, final amount %s",
		b.BillNumber, b.FinalAmount.StringFixed(2)))
	return b, nil
}

// GetBill loads a bill with its items and payment history.
func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Payments, err = s.payments.ListByBill(ctx, id)
	return b, err
}

// ApplyDiscount replaces the bill's discount and recomputes the final
// amount. Only allowed before any payment has been applied or accepted as
// pending, so money already collected, and money the gateway may still
// settle, can never exceed the new final amount.
func (s *Service) ApplyDiscount(ctx context.Context, id uuid.UUID, d *Discount, actor *uuid.UUID) (*Bill, error) {
	var result *Bill
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.bills.GetByIDForUpdate(ctx, id)
		if err != nil {
			return ErrBillNotFound
		}
		if !b.PaidAmount.IsZero() {
			return fmt.Errorf("cannot change discount after payments have been applied")
		}
		pays, err := s.payments.ListByBill(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range pays {
			if p.Status == PaymentPending {
				return fmt.Errorf("cannot change discount while a payment is pending")
			}
		}

		items, err := s.bills.GetItems(ctx, id)
		if err != nil {
			return err
		}
		totals, err := ComputeTotals(items, d)
		if err != nil {
			return err
		}

		b.DiscountAmount = totals.DiscountAmount
		b.FinalAmount = totals.FinalAmount
		if d != nil {
			b.DiscountReason = d.Reason
		}
		if err := s.bills.UpdateTotals(ctx, b); err != nil {
			return err
		}
		b.Items = items
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "update", id, fmt.Sprintf("discount applied, final amount %s",
		result.FinalAmount.StringFixed(2)))
	return result, nil
}

// ApplyPayment applies money towards a bill. The check-then-append sequence
// runs in one transaction with a row lock on the bill, so two concurrent
// payments cannot both pass the overpayment check.
//
// Cash settles unconditionally. Other modes route through the gateway: a
// declined result leaves the bill untouched and returns ErrPaymentDeclined;
// a pending result records the payment as pending without counting it
// towards the paid amount until ConfirmPayment.
func (s *Service) ApplyPayment(ctx context.Context, billID uuid.UUID, req *PaymentRequest, actor *uuid.UUID) (*Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive")
	}
	if !validModes[req.Mode] {
		return nil, fmt.Errorf("invalid payment mode: %s", req.Mode)
	}

	var (
		pay  *Payment
		bill *Bill
	)
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.bills.GetByIDForUpdate(ctx, billID)
		if err != nil {
			return ErrBillNotFound
		}
		if b.Status == BillPaid {
			return ErrBillAlreadyPaid
		}
		if req.Amount.GreaterThan(b.Outstanding()) {
			return fmt.Errorf("%w: outstanding %s, attempted %s", ErrOverpayment,
				b.Outstanding().StringFixed(2), req.Amount.StringFixed(2))
		}

		p := &Payment{
			BillID:     billID,
			Amount:     req.Amount,
			Mode:       req.Mode,
			Status:     PaymentCompleted,
			Details:    req.Details,
			ReceivedBy: actor,
		}

		if req.Mode != ModeCash {
			res, err := s.gateway.Process(ctx, payment.Request{
				BillID:    billID.String(),
				PatientID: b.PatientID.String(),
				Amount:    req.Amount,
				Mode:      req.Mode,
				Details:   req.Details,
			})
			if err != nil {
				return fmt.Errorf("payment gateway: %w", err)
			}
			switch res.Status {
			case payment.StatusFailed:
				return fmt.Errorf("%w: %s", ErrPaymentDeclined, res.Message)
			case payment.StatusPending:
				p.Status = PaymentPending
			}
			if res.TransactionID != "" {
				p.TransactionID = &res.TransactionID
			}
		}

		if err := s.payments.Create(ctx, p); err != nil {
			return err
		}

		if p.Status == PaymentCompleted {
			b.PaidAmount = b.PaidAmount.Add(p.Amount)
			b.Status = BillPartial
			if b.Outstanding().IsZero() {
				b.Status = BillPaid
			}
			if err := s.bills.UpdatePaymentState(ctx, billID, b.PaidAmount, b.Status); err != nil {
				return err
			}
		}

		pay = p
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "create", billID, fmt.Sprintf("payment of %s via %s (%s), bill now %s",
		pay.Amount.StringFixed(2), pay.Mode, pay.Status, bill.Status))
	if pay.Status == PaymentCompleted {
		s.notifyReceipt(ctx, bill, pay)
	}
	return pay, nil
}

// ConfirmPayment settles a pending gateway payment. There is no webhook
// path; settlement is always an explicit operator action.
func (s *Service) ConfirmPayment(ctx context.Context, billID, paymentID uuid.UUID, transactionID string, actor *uuid.UUID) (*Bill, error) {
	var (
		bill *Bill
		pay  *Payment
	)
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		b, err := s.bills.GetByIDForUpdate(ctx, billID)
		if err != nil {
			return ErrBillNotFound
		}
		p, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return ErrPaymentNotFound
		}
		if p.BillID != billID {
			return fmt.Errorf("payment does not belong to this bill")
		}
		if p.Status != PaymentPending {
			return ErrPaymentNotPending
		}
		if p.Amount.GreaterThan(b.Outstanding()) {
			return fmt.Errorf("%w: outstanding %s, pending payment %s", ErrOverpayment,
				b.Outstanding().StringFixed(2), p.Amount.StringFixed(2))
		}

		txnID := transactionID
		if txnID == "" && p.TransactionID != nil {
			txnID = *p.TransactionID
		}
		if err := s.payments.MarkCompleted(ctx, paymentID, txnID); err != nil {
			return err
		}

		b.PaidAmount = b.PaidAmount.Add(p.Amount)
		b.Status = BillPartial
		if b.Outstanding().IsZero() {
			b.Status = BillPaid
		}
		if err := s.bills.UpdatePaymentState(ctx, billID, b.PaidAmount, b.Status); err != nil {
			return err
		}

		p.Status = PaymentCompleted
		bill = b
		pay = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "update", billID, fmt.Sprintf("pending payment of %s confirmed, bill now %s",
		pay.Amount.StringFixed(2), bill.Status))
	s.notifyReceipt(ctx, bill, pay)
	return bill, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Bill, int, error) {
	if status != BillPending && status != BillPartial && status != BillPaid {
		return nil, 0, fmt.Errorf("invalid bill status: %s", status)
	}
	return s.bills.ListByStatus(ctx, status, limit, offset)
}

func (s *Service) recordAudit(ctx context.Context, actor *uuid.UUID, action string, billID uuid.UUID, detail string) {
	if s.auditor == nil {
		return
	}
	resourceID := billID.String()
	s.auditor.Record(ctx, &audit.Entry{
		ActorID:    actor,
		Action:     action,
		Resource:   "bills",
		ResourceID: &resourceID,
		Detail:     &detail,
	})
}

// notifyReceipt is best effort. Failures are logged, never returned.
func (s *Service) notifyReceipt(ctx context.Context, b *Bill, p *Payment) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.SendFromTemplate(ctx, "payment-receipt", map[string]string{
		"patient_name": b.PatientID.String(),
		"amount":       p.Amount.StringFixed(2),
		"bill_no":      b.BillNumber,
		"outstanding":  b.Outstanding().StringFixed(2),
	}, b.PatientID.String())
	if err != nil {
		s.log.Warn().Err(err).Str("bill_id", b.ID.String()).Msg("payment receipt notification failed")
	}
}
