package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	Status      string
	OrderNo     string
	Email       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// DiscountListFilter 查询优惠码列表的过滤条件
type DiscountListFilter struct {
	Page     int
	PageSize int
	Code     string
	IsActive *bool
}

// AbandonedCartListFilter 查询未结账购物车列表的过滤条件
type AbandonedCartListFilter struct {
	Page     int
	PageSize int
	Filter   string // all / pending / reminded / recovered
}
