package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SeedProducts loads the sample catalog if the products table is empty.
// Returns the number of products created (0 when seeding was skipped).
func SeedProducts(ctx context.Context, products *ProductRepo) (int, error) {
	count, err := products.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	catalog := sampleCatalog()
	if err := products.CreateBatch(ctx, catalog); err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}
	return len(catalog), nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sampleCatalog spans the trust tiers: items under $5 for anonymous
// agents, under $20 for claimed agents, and up to four figures for
// verified ones.
func sampleCatalog() []Product {
	return []Product{
		{
			Name:          "API Health Check",
			Description:   "Single API endpoint health check call with response time metrics",
			Price:         price("0.50"),
			Category:      "API Access",
			ImageURL:      "https://images.unsplash.com/photo-1558494949-ef010cbdcc31",
			StockQuantity: 1000,
		},
		{
			Name:          "Weather Data Query",
			Description:   "Real-time weather data for any global location with 7-day forecast",
			Price:         price("1.00"),
			Category:      "Data & Analytics",
			ImageURL:      "https://images.unsplash.com/photo-1504608524841-42fe6f032b4b",
			StockQuantity: 500,
		},
		{
			Name:          "Basic Analytics Report",
			Description:   "Auto-generated analytics summary with key metrics and trends",
			Price:         price("2.99"),
			Category:      "Data & Analytics",
			ImageURL:      "https://images.unsplash.com/photo-1551288049-bebda4e38f71",
			StockQuantity: 200,
		},
		{
			Name:          "Stock Quote Bundle",
			Description:   "Bundle of 10 real-time stock quote queries with volume data",
			Price:         price("3.99"),
			Category:      "Digital Services",
			ImageURL:      "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3",
			StockQuantity: 300,
		},
		{
			Name:          "Digital Sticker Pack",
			Description:   "AI-generated digital sticker collection for agent avatars and branding",
			Price:         price("1.99"),
			Category:      "Digital Services",
			ImageURL:      "https://images.unsplash.com/photo-1561070791-2526d30994b5",
			StockQuantity: 999,
		},
		{
			Name:          "Premium API Access (1 Hour)",
			Description:   "Unlimited API calls for one hour with priority rate limits",
			Price:         price("9.99"),
			Category:      "API Access",
			ImageURL:      "https://images.unsplash.com/photo-1544197150-b99a580bb7a8",
			StockQuantity: 100,
		},
		{
			Name:          "Market Intelligence Report",
			Description:   "Comprehensive market analysis with competitor insights and forecasts",
			Price:         price("14.99"),
			Category:      "Data & Analytics",
			ImageURL:      "https://images.unsplash.com/photo-1460925895917-afdab827c52f",
			StockQuantity: 50,
		},
		{
			Name:          "Compute Credits (1 GPU-Hour)",
			Description:   "One hour of GPU compute on NVIDIA A100 for inference or training",
			Price:         price("12.99"),
			Category:      "Compute",
			ImageURL:      "https://images.unsplash.com/photo-1518770660439-4636190af475",
			StockQuantity: 75,
		},
		{
			Name:          "Public Sentiment Dataset",
			Description:   "Curated dataset of public sentiment analysis across social platforms",
			Price:         price("7.99"),
			Category:      "Data & Analytics",
			ImageURL:      "https://images.unsplash.com/photo-1504868584819-f8e8b4b6d7e3",
			StockQuantity: 40,
		},
		{
			Name:          "Smart Contract Audit (Basic)",
			Description:   "Automated security audit of Solana or EVM smart contracts under 500 LOC",
			Price:         price("19.99"),
			Category:      "Digital Services",
			ImageURL:      "https://images.unsplash.com/photo-1639762681485-074b7f938ba0",
			StockQuantity: 25,
		},
		{
			Name:          "Enterprise API Key (Monthly)",
			Description:   "Dedicated API key with 1M requests/month, SLA guarantees, and analytics dashboard",
			Price:         price("49.99"),
			Category:      "Enterprise",
			ImageURL:      "https://images.unsplash.com/photo-1551434678-e076c223a692",
			StockQuantity: 20,
		},
		{
			Name:          "Full Market Dataset (Annual)",
			Description:   "Complete annual market dataset with historical trends across 50+ sectors",
			Price:         price("199.99"),
			Category:      "Enterprise",
			ImageURL:      "https://images.unsplash.com/photo-1526628953301-3e589a6a8b74",
			StockQuantity: 10,
		},
		{
			Name:          "Dedicated Compute Instance (Day)",
			Description:   "24-hour dedicated GPU instance with 8x A100 GPUs and 1TB RAM",
			Price:         price("89.99"),
			Category:      "Compute",
			ImageURL:      "https://images.unsplash.com/photo-1558494949-ef010cbdcc31",
			StockQuantity: 5,
		},
		{
			Name:          "Custom ML Model Training",
			Description:   "End-to-end custom ML model training with hyperparameter optimization and deployment",
			Price:         price("499.99"),
			Category:      "Compute",
			ImageURL:      "https://images.unsplash.com/photo-1677442136019-21780ecad995",
			StockQuantity: 3,
		},
		{
			Name:          "Premium SLA Support Package",
			Description:   "Enterprise support with 15-min response time, dedicated account manager, and 99.99% uptime SLA",
			Price:         price("999.99"),
			Category:      "Enterprise",
			ImageURL:      "https://images.unsplash.com/photo-1553877522-43269d4ea984",
			StockQuantity: 5,
		},
	}
}
