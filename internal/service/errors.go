package service

import (
	"errors"

	"github.com/parcel-billing/internal/billing"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not satisfy policy")

	ErrCustomerNotFound      = errors.New("customer not found")
	ErrBranchNotFound        = errors.New("branch not found")
	ErrDeliveryOrderNotFound = errors.New("delivery order not found")
	ErrPackageNotFound       = errors.New("package not found")
	ErrOrderHasNoPackages    = errors.New("delivery order has no packages")
	ErrPackagePriceMissing   = errors.New("package price not configured")
	ErrOrderStatusInvalid    = errors.New("delivery order status invalid")

	ErrChargeTypeRequired   = errors.New("charge type is required")
	ErrChargeTypeNotAllowed = errors.New("delivery fee charges are created by pricing only")
	ErrChargeAmountRequired = errors.New("charge amount is required")

	ErrDiscountTypeRequired   = errors.New("discount type is required")
	ErrDiscountAmountRequired = errors.New("discount amount is required")
	ErrDiscountExists         = errors.New("discount already exists for order")

	ErrPaymentMethodRequired       = errors.New("payment method is required")
	ErrTotalAmountRequired         = errors.New("total amount is required")
	ErrTotalAmountIncorrect        = billing.ErrTotalAmountIncorrect
	ErrEndAtRequired               = errors.New("end date is required")
	ErrOperatorTransactionRequired = errors.New("operator transaction id is required")
	ErrPaymentTimeRequired         = errors.New("payment time is required")
	ErrNoUnpaidCharges             = errors.New("no unpaid charges")
	ErrChargesReserved             = errors.New("charges reserved by another payment request")
	ErrChargeAlreadySettled        = errors.New("charge already paid")
	ErrReservationLost             = errors.New("charges no longer reserved by payment request")
	ErrPaymentInProgress           = errors.New("another payment is being processed")
	ErrPickupWindowClosed          = errors.New("pickup time outside business hours")

	ErrPaymentRequestNotFound  = errors.New("payment request not found")
	ErrCallbackStatusRequired  = errors.New("callback status is required")
	ErrCallbackRequestMismatch = errors.New("callback payment request id mismatch")

	ErrInvoiceNotFound        = errors.New("delivery invoice not found")
	ErrInvoiceHasNoCharges    = errors.New("delivery invoice has no charges")
	ErrInvoiceRangeInvalid    = errors.New("invoice date range invalid")
	ErrAmountRequired         = billing.ErrAmountRequired
	errOfflineGatewayRejected = errors.New("offline confirmation rejected by gateway")
)
