package postgres

import (
	"encoding/json"
	"time"

	paymentmodel "github.com/frahmantamala/checkout-payments/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/checkout-payments/internal/payment"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(p *paymentmodel.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByOrderID(orderID string) (*paymentmodel.Payment, error) {
	var p paymentmodel.Payment
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByPaymentIntentID(paymentIntentID string) (*paymentmodel.Payment, error) {
	var p paymentmodel.Payment
	err := r.db.Where("payment_intent_id = ?", paymentIntentID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) UpdateStatus(id int64, status string, gatewayResponse json.RawMessage, failureReason *string) error {
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now(),
	}

	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	if failureReason != nil {
		updates["failure_reason"] = *failureReason
	}

	return r.db.Model(&paymentmodel.Payment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *PaymentRepository) UpdateRefund(id int64, status string, amountRefunded int64, gatewayResponse json.RawMessage) error {
	updates := map[string]interface{}{
		"status":          status,
		"amount_refunded": amountRefunded,
		"processed_at":    time.Now(),
	}

	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	return r.db.Model(&paymentmodel.Payment{}).Where("id = ?", id).Updates(updates).Error
}
