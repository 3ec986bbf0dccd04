package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

const bestSellerCount = 5

// BestSeller is a row of the best sellers chart.
type BestSeller struct {
	ID        int64  `json:"id"`
	ItemName  string `json:"item_name"`
	UnitsSold int    `json:"units_sold"`
}

// DashboardSummary represents the headline numbers of the inventory dashboard
type DashboardSummary struct {
	TotalItems       int             `json:"total_items"`
	UniqueItems      int             `json:"unique_items"`
	LowStockItems    int             `json:"low_stock_items"`
	UnitsLeft        int             `json:"units_left"`
	UnitsSold        int             `json:"units_sold"`
	StockCostValue   decimal.Decimal `json:"stock_cost_value"`
	StockRetailValue decimal.Decimal `json:"stock_retail_value"`
	Revenue          decimal.Decimal `json:"revenue"`
	GrossProfit      decimal.Decimal `json:"gross_profit"`
	AverageCost      decimal.Decimal `json:"average_cost_price"`
	BestSellers      []BestSeller    `json:"best_sellers"`
}

// SummarizeInventory computes the dashboard numbers for a snapshot. Unique
// items count distinct names; the average cost is rounded to cents.
func SummarizeInventory(items []InventoryItem) DashboardSummary {
	summary := DashboardSummary{
		StockCostValue:   decimal.Zero,
		StockRetailValue: decimal.Zero,
		Revenue:          decimal.Zero,
		GrossProfit:      decimal.Zero,
		AverageCost:      decimal.Zero,
		BestSellers:      make([]BestSeller, 0, bestSellerCount),
	}

	names := make(map[string]struct{}, len(items))
	totalCost := decimal.Zero
	for _, item := range items {
		summary.TotalItems++
		names[item.ItemName] = struct{}{}
		totalCost = totalCost.Add(item.CostPrice)
		if item.IsLowStock() {
			summary.LowStockItems++
		}
		summary.UnitsLeft += item.UnitsLeft
		summary.UnitsSold += item.UnitsSold

		left := decimal.NewFromInt(int64(item.UnitsLeft))
		sold := decimal.NewFromInt(int64(item.UnitsSold))
		summary.StockCostValue = summary.StockCostValue.Add(item.CostPrice.Mul(left))
		summary.StockRetailValue = summary.StockRetailValue.Add(item.Price.Mul(left))
		summary.Revenue = summary.Revenue.Add(item.Price.Mul(sold))
		summary.GrossProfit = summary.GrossProfit.Add(item.Price.Sub(item.CostPrice).Mul(sold))
	}

	summary.UniqueItems = len(names)
	if len(items) > 0 {
		summary.AverageCost = totalCost.DivRound(decimal.NewFromInt(int64(len(items))), 2)
	}

	ranked := make([]InventoryItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UnitsSold > ranked[j].UnitsSold
	})
	for i := 0; i < len(ranked) && i < bestSellerCount; i++ {
		summary.BestSellers = append(summary.BestSellers, BestSeller{
			ID:        ranked[i].ID,
			ItemName:  ranked[i].ItemName,
			UnitsSold: ranked[i].UnitsSold,
		})
	}

	return summary
}
