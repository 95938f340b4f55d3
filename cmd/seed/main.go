package main

import (
	"context"
	"errors"
	"time"

	"github.com/parcel-billing/internal/billing"
	"github.com/parcel-billing/internal/config"
	"github.com/parcel-billing/internal/constants"
	"github.com/parcel-billing/internal/logger"
	"github.com/parcel-billing/internal/models"
	"github.com/parcel-billing/internal/provider"
	"github.com/parcel-billing/internal/service"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedStaff struct {
	Username string
	Password string
	Role     string
}

type seedOrder struct {
	Status   string
	PlacedAt *time.Time
	Packages []billing.PackageSize
}

type seedCustomer struct {
	Customer models.Customer
	Branches []string
	Orders   []seedOrder
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	ctx := context.Background()

	for _, item := range demoStaff() {
		if err := seedStaffAccount(container, item); err != nil {
			stdLog.Printf("Failed to seed staff %s: %v", item.Username, err)
		}
	}

	for _, item := range demoCustomers(time.Now()) {
		var existing models.Customer
		err := models.DB.Where("name = ?", item.Customer.Name).First(&existing).Error
		if err == nil {
			stdLog.Printf("Customer already exists: %s", item.Customer.Name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			stdLog.Fatalf("Failed to query customer %s: %v", item.Customer.Name, err)
		}

		customer := item.Customer
		if err := models.DB.Create(&customer).Error; err != nil {
			stdLog.Fatalf("Failed to create customer %s: %v", customer.Name, err)
		}
		var branchID *uint
		for _, name := range item.Branches {
			branch := models.Branch{CustomerID: customer.ID, Name: name}
			if err := models.DB.Create(&branch).Error; err != nil {
				stdLog.Fatalf("Failed to create branch %s: %v", name, err)
			}
			if branchID == nil {
				id := branch.ID
				branchID = &id
			}
		}

		for _, orderSeed := range item.Orders {
			order := models.DeliveryOrder{
				CustomerID: customer.ID,
				BranchID:   branchID,
				Status:     orderSeed.Status,
				PlacedAt:   orderSeed.PlacedAt,
			}
			for _, size := range orderSeed.Packages {
				order.Packages = append(order.Packages, models.Package{Size: size})
			}
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Fatalf("Failed to create delivery order: %v", err)
			}
			quote, err := container.PricingService.CreateDeliveryFees(ctx, order.ID)
			if err != nil {
				stdLog.Fatalf("Failed to price delivery order %d: %v", order.ID, err)
			}
			stdLog.Printf("Created delivery order %d for %s, total %s", order.ID, customer.Name, quote.TotalAmount.StringFixed(2))
		}
	}

	stdLog.Println("Seed completed")
}

func seedStaffAccount(container *provider.Container, item seedStaff) error {
	staff, err := container.StaffRepo.GetByUsername(item.Username)
	if err != nil {
		return err
	}
	if staff == nil {
		if err := service.ValidateStaffPassword(container.Config.Security.PasswordPolicy, item.Password); err != nil {
			return err
		}
		hash, err := service.HashPassword(item.Password)
		if err != nil {
			return err
		}
		staff = &models.Staff{Username: item.Username, PasswordHash: hash, Role: item.Role}
		if err := container.StaffRepo.Create(staff); err != nil {
			return err
		}
	}
	if container.AuthzService == nil {
		return nil
	}
	return container.AuthzService.SetStaffRoles(staff.ID, []string{item.Role})
}

func demoStaff() []seedStaff {
	return []seedStaff{
		{Username: "auditor", Password: "auditor123", Role: constants.StaffRoleReadonlyAuditor},
		{Username: "dispatcher", Password: "dispatcher123", Role: constants.StaffRoleDispatcher},
		{Username: "finance", Password: "finance123", Role: constants.StaffRoleFinance},
	}
}

func demoCustomers(now time.Time) []seedCustomer {
	placed := now.AddDate(0, 0, -9)
	recent := now.AddDate(0, 0, -1)
	postpaidUntil := now.AddDate(0, 3, 0)
	fixedUntil := now.AddDate(0, 1, 0)

	return []seedCustomer{
		{
			Customer: models.Customer{
				Name:               "Harbor Florists",
				BillingInterval:    constants.DefaultBillingIntervalDays,
				BillingGracePeriod: constants.DefaultBillingGracePeriodDays,
				WeightingFactor:    decimal.NewFromInt(1),
			},
			Branches: []string{"Harbor Florists Downtown"},
			Orders: []seedOrder{
				{Status: constants.OrderStatusPending, Packages: []billing.PackageSize{billing.PackageSizeSmall, billing.PackageSizeMedium}},
			},
		},
		{
			Customer: models.Customer{
				Name:               "Northwind Pharmacy",
				BillingInterval:    constants.DefaultBillingIntervalDays,
				BillingGracePeriod: constants.DefaultBillingGracePeriodDays,
				WeightingFactor:    decimal.RequireFromString("0.9"),
				PostpaidExpiry:     &postpaidUntil,
			},
			Branches: []string{"Northwind East", "Northwind West"},
			Orders: []seedOrder{
				{Status: constants.OrderStatusComplete, PlacedAt: &placed, Packages: []billing.PackageSize{billing.PackageSizeLarge}},
				{Status: constants.OrderStatusComplete, PlacedAt: &recent, Packages: []billing.PackageSize{billing.PackageSizeSmall, billing.PackageSizeSmall}},
			},
		},
		{
			Customer: models.Customer{
				Name:               "Atlas Print Shop",
				BillingInterval:    14,
				BillingGracePeriod: constants.DefaultBillingGracePeriodDays,
				WeightingFactor:    decimal.NewFromInt(1),
				FixedPriceAmount:   models.NewMoneyPtr(decimal.NewFromInt(1200)),
				FixedPriceExpiry:   &fixedUntil,
			},
			Orders: []seedOrder{
				{Status: constants.OrderStatusPending, Packages: []billing.PackageSize{billing.PackageSizeLarge}},
			},
		},
	}
}
