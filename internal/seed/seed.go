// Package seed loads the demo accounts, categories and products used for
// local development. Rows are keyed by fixed ids, so running it twice is safe.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/hash"
	"github.com/Skotchmaster/marketplace/internal/models"
)

const DemoPassword = "password123"

var (
	AdminID   = uuid.MustParse("550e8400-e29b-41d4-a716-446655440001")
	Seller1ID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440002")
	Seller2ID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440003")
	Customer1 = uuid.MustParse("550e8400-e29b-41d4-a716-446655440004")
	Customer2 = uuid.MustParse("550e8400-e29b-41d4-a716-446655440005")

	electronics = uuid.MustParse("660e8400-e29b-41d4-a716-446655440001")
	fashion     = uuid.MustParse("660e8400-e29b-41d4-a716-446655440002")
	homeGarden  = uuid.MustParse("660e8400-e29b-41d4-a716-446655440003")
)

type Summary struct {
	Users      int64
	Categories int64
	Products   int64
}

func Users(passwordHash string) []models.User {
	u := func(id uuid.UUID, email, name, phone, role string) models.User {
		return models.User{
			ID: id, Email: email, Name: name, Phone: phone,
			Role: role, IsActive: true, PasswordHash: passwordHash,
		}
	}
	return []models.User{
		u(AdminID, "admin@ecommerce.com", "Admin User", "+1234567890", models.RoleAdmin),
		u(Seller1ID, "seller1@ecommerce.com", "John Seller", "+1234567891", models.RoleSeller),
		u(Seller2ID, "seller2@ecommerce.com", "Sarah Merchant", "+1234567892", models.RoleSeller),
		u(Customer1, "customer1@ecommerce.com", "Mike Customer", "+1234567893", models.RoleCustomer),
		u(Customer2, "customer2@ecommerce.com", "Lisa Buyer", "+1234567894", models.RoleCustomer),
	}
}

func Categories() []models.Category {
	c := func(n int, name, slug, desc string) models.Category {
		return models.Category{
			ID:          uuid.MustParse(fmt.Sprintf("660e8400-e29b-41d4-a716-44665544000%d", n)),
			Name:        name,
			Slug:        slug,
			Description: desc,
			IsActive:    true,
			SortOrder:   n,
		}
	}
	return []models.Category{
		c(1, "Electronics", "electronics", "Latest gadgets, devices and accessories"),
		c(2, "Fashion", "fashion", "Clothing, shoes and accessories"),
		c(3, "Home & Garden", "home-garden", "Furniture, decor and garden supplies"),
		c(4, "Sports", "sports", "Equipment and apparel for active lifestyles"),
		c(5, "Books", "books", "Fiction, non-fiction and educational titles"),
		c(6, "Toys & Games", "toys-games", "Fun for all ages"),
	}
}

func Products() []models.Product {
	p := func(n int, name, desc, price, compare string, cat, seller uuid.UUID, stock int, sku string, rating float64, reviews int) models.Product {
		cp := decimal.RequireFromString(compare)
		return models.Product{
			ID:           uuid.MustParse(fmt.Sprintf("770e8400-e29b-41d4-a716-4466554400%02d", n)),
			Name:         name,
			Description:  desc,
			Price:        decimal.RequireFromString(price),
			ComparePrice: &cp,
			Images:       []string{},
			CategoryID:   cat,
			SellerID:     seller,
			Stock:        stock,
			SKU:          sku,
			IsActive:     true,
			Rating:       rating,
			ReviewCount:  reviews,
			Tags:         []string{},
			Featured:     n <= 4,
		}
	}
	return []models.Product{
		p(1, "Wireless Bluetooth Headphones", "Wireless headphones with noise cancellation and 30-hour battery life.",
			"89.99", "129.99", electronics, Seller1ID, 50, "ELEC-HEAD-001", 4.5, 128),
		p(2, "Smart Fitness Watch", "Fitness tracking watch with heart rate monitor, GPS and notifications.",
			"199.99", "249.99", electronics, Seller1ID, 25, "ELEC-WATCH-001", 4.3, 89),
		p(3, "Laptop Stand with Cooling", "Ergonomic laptop stand with a built-in cooling fan.",
			"45.99", "59.99", electronics, Seller2ID, 75, "ELEC-STAND-001", 4.7, 156),
		p(4, "Wireless Charging Pad", "Fast wireless charger compatible with Qi devices.",
			"29.99", "39.99", electronics, Seller2ID, 100, "ELEC-CHARG-001", 4.2, 67),
		p(5, "Premium Cotton T-Shirt", "Soft organic cotton t-shirt with a relaxed fit.",
			"24.99", "34.99", fashion, Seller1ID, 200, "FASH-TSHIRT-001", 4.4, 234),
		p(6, "Leather Crossbody Bag", "Genuine leather crossbody bag with adjustable strap.",
			"79.99", "99.99", fashion, Seller2ID, 30, "FASH-BAG-001", 4.6, 89),
		p(7, "Smart LED Light Bulb Set", "App-controlled color changing bulbs, pack of four.",
			"49.99", "69.99", homeGarden, Seller1ID, 60, "HOME-LED-001", 4.8, 178),
		p(8, "Garden Tool Set", "Stainless steel hand tools with ergonomic grips.",
			"39.99", "49.99", homeGarden, Seller2ID, 40, "HOME-TOOLS-001", 4.5, 92),
	}
}

// Run inserts the demo data. Existing rows with the same primary key are left alone.
func Run(ctx context.Context, db *gorm.DB) (Summary, error) {
	pw, err := hash.HashPassword(DemoPassword)
	if err != nil {
		return Summary{}, fmt.Errorf("hash password: %w", err)
	}

	var s Summary
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := tx.Clauses(clause.OnConflict{DoNothing: true})

		users := Users(pw)
		res := skip.Create(&users)
		if res.Error != nil {
			return fmt.Errorf("seed users: %w", res.Error)
		}
		s.Users = res.RowsAffected

		cats := Categories()
		res = skip.Create(&cats)
		if res.Error != nil {
			return fmt.Errorf("seed categories: %w", res.Error)
		}
		s.Categories = res.RowsAffected

		products := Products()
		res = skip.Create(&products)
		if res.Error != nil {
			return fmt.Errorf("seed products: %w", res.Error)
		}
		s.Products = res.RowsAffected
		return nil
	})
	return s, err
}
