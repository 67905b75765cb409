package main

import (
	"time"

	"github.com/bottega-next/internal/config"
	"github.com/bottega-next/internal/constants"
	"github.com/bottega-next/internal/logger"
	"github.com/bottega-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	products := []models.Product{
		{
			Name:        "Wireless Bluetooth Earphones",
			Description: "High quality sound, long battery life, comfortable to wear.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(24.99)),
			Stock:       120,
			IsActive:    true,
		},
		{
			Name:        "Stainless Steel Water Bottle",
			Description: "Keeps drinks cold for 24 hours, 750ml.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50)),
			Stock:       200,
			IsActive:    true,
		},
		{
			Name:        "Canvas Tote Bag",
			Description: "Durable everyday carry with inner pocket.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(9.90)),
			Stock:       80,
			IsActive:    true,
		},
		{
			Name:        "Mechanical Keyboard",
			Description: "Hot-swappable switches, RGB backlight.",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(69.00)),
			Stock:       35,
			IsActive:    true,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := db.Where("name = ?", product.Name).First(&existing).Error; err != nil {
			if err := db.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			} else {
				stdLog.Printf("Created product: %s", product.Name)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Name)
		}
	}

	expiresAt := time.Now().AddDate(0, 3, 0)
	discounts := []models.DiscountCode{
		{
			Code:        "WELCOME10",
			Type:        constants.DiscountTypePercentage,
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinPurchase: models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			MaxUses:     0,
			IsActive:    true,
			ExpiresAt:   &expiresAt,
		},
		{
			Code:        "FIVEOFF",
			Type:        constants.DiscountTypeFixed,
			Value:       models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			MinPurchase: models.NewMoneyFromDecimal(decimal.NewFromInt(25)),
			MaxUses:     100,
			IsActive:    true,
			ExpiresAt:   &expiresAt,
		},
	}

	for _, discount := range discounts {
		var existing models.DiscountCode
		if err := db.Where("code = ?", discount.Code).First(&existing).Error; err != nil {
			if err := db.Create(&discount).Error; err != nil {
				stdLog.Printf("Failed to create discount %s: %v", discount.Code, err)
			} else {
				stdLog.Printf("Created discount: %s", discount.Code)
			}
		} else {
			stdLog.Printf("Discount already exists: %s", discount.Code)
		}
	}

	stdLog.Println("Seed finished")
}
