package billing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmountRequired 金额缺失（数据完整性问题，非用户输入）
	ErrAmountRequired = errors.New("transaction amount is required")
	// ErrTotalAmountIncorrect 客户端回传总额与服务端计算不一致
	ErrTotalAmountIncorrect = errors.New("total amount incorrect")
)

// TransactionFeePercentage 交易手续费比例
var TransactionFeePercentage = decimal.RequireFromString("0.025")

var one = decimal.NewFromInt(1)

// ChargeLine 参与计算的费用行
type ChargeLine struct {
	TransactionAmount decimal.Decimal
	Status            ChargeStatus
}

// DiscountLine 参与计算的折扣行
type DiscountLine struct {
	Amount decimal.Decimal
}

// Breakdown 交易金额拆分
type Breakdown struct {
	TransactionAmount decimal.Decimal
	TransactionFee    decimal.Decimal
	TotalAmount       decimal.Decimal
}

// FeeFromTransactionAmount 按 amount*p/(1-p) 计算手续费，两位小数远离零进位
func FeeFromTransactionAmount(amount decimal.NullDecimal) (decimal.Decimal, error) {
	if !amount.Valid {
		return decimal.Zero, ErrAmountRequired
	}
	if amount.Decimal.IsZero() {
		return decimal.Zero, nil
	}
	p := TransactionFeePercentage
	return amount.Decimal.Mul(p).Div(one.Sub(p)).RoundUp(2), nil
}

// TransactionAmountFromTotal 由含手续费总额反推交易金额 (1/p - 1) * total * p
// 与 FeeFromTransactionAmount 各自舍入，二者互逆只在误差范围内成立
func TransactionAmountFromTotal(total decimal.NullDecimal) (decimal.Decimal, error) {
	if !total.Valid {
		return decimal.Zero, ErrAmountRequired
	}
	if total.Decimal.IsZero() {
		return decimal.Zero, nil
	}
	p := TransactionFeePercentage
	return one.Div(p).Sub(one).Mul(total.Decimal).Mul(p), nil
}

// TotalFromTransactionAmount 交易金额加手续费
func TotalFromTransactionAmount(amount decimal.NullDecimal) (decimal.Decimal, error) {
	fee, err := FeeFromTransactionAmount(amount)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Decimal.Add(fee), nil
}

// NetTransactionAmount 费用合计减去折扣合计
func NetTransactionAmount(charges []ChargeLine, discounts []DiscountLine) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.TransactionAmount)
	}
	for _, d := range discounts {
		total = total.Sub(d.Amount)
	}
	return total
}

// PaymentStatusOf 根据费用的已付/未付组合推导支付状态
func PaymentStatusOf(charges []ChargeLine) PaymentStatus {
	if len(charges) == 0 {
		return PaymentStatusNoCharge
	}
	unpaid := 0
	for _, c := range charges {
		if c.Status != ChargeStatusPaid {
			unpaid++
		}
	}
	switch unpaid {
	case 0:
		return PaymentStatusPaid
	case len(charges):
		return PaymentStatusUnpaid
	default:
		return PaymentStatusPartial
	}
}

// TransactionBreakdownOf 计算净额、手续费与总额；expectedTotal 非空时必须与总额完全一致
func TransactionBreakdownOf(charges []ChargeLine, discounts []DiscountLine, expectedTotal *decimal.Decimal) (Breakdown, error) {
	amount := NetTransactionAmount(charges, discounts)
	fee, err := FeeFromTransactionAmount(decimal.NewNullDecimal(amount))
	if err != nil {
		return Breakdown{}, err
	}
	breakdown := Breakdown{
		TransactionAmount: amount,
		TransactionFee:    fee,
		TotalAmount:       amount.Add(fee),
	}
	if expectedTotal != nil && !expectedTotal.Equal(breakdown.TotalAmount) {
		return breakdown, ErrTotalAmountIncorrect
	}
	return breakdown, nil
}

// RoundForDisplay 展示用取整（远离零），不用于账本金额
func RoundForDisplay(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundUp(0)
}
