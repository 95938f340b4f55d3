package repository

import "time"

// UnpaidOrderFilter 查询未付订单的过滤条件
type UnpaidOrderFilter struct {
	CustomerID uint
	StartAt    *time.Time
	EndAt      *time.Time
	BranchID   *uint
}

// ChargeListFilter 查询包裹费用列表的过滤条件
type ChargeListFilter struct {
	Page      int
	PageSize  int
	PackageID uint
	Status    string
}

// PaymentRequestListFilter 查询支付请求列表的过滤条件
type PaymentRequestListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	Mode        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
