package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/database"
)

// GetPortfolio returns the user's holdings plus a total value computed from
// the live price. The total is a pure projection: nothing stores it, so it
// cannot drift from amount x price.
func GetPortfolio(c *fiber.Ctx) error {
	userID, okID := currentUserID(c)
	if !okID {
		return fail(c, fiber.StatusUnauthorized, "invalid user ID in token")
	}

	assets, err := database.GetUserAssets(c.Context(), userID)
	if err != nil {
		log.Error("failed to fetch assets", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "failed to retrieve portfolio")
	}

	totalValue := decimal.Zero
	valued := make([]fiber.Map, 0, len(assets))
	for _, asset := range assets {
		quote, err := prices.Price(c.Context(), asset.Symbol)
		if err != nil {
			log.Error("price feed unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
			return fail(c, fiber.StatusBadGateway, "price feed unavailable")
		}
		price := decimal.NewFromFloat(quote.PriceUSD)
		value := asset.Amount.Mul(price)
		totalValue = totalValue.Add(value)
		valued = append(valued, fiber.Map{
			"symbol":     asset.Symbol,
			"amount":     asset.Amount,
			"price_usd":  price,
			"value_usd":  value,
			"change_24h": quote.Change24h,
		})
	}

	return ok(c, fiber.StatusOK, fiber.Map{
		"assets":      valued,
		"total_value": totalValue,
	})
}

// GetPrices returns the current quotes for all supported symbols.
func GetPrices(c *fiber.Ctx) error {
	quotes, err := prices.Prices(c.Context(), []string{"BTC"})
	if err != nil {
		log.Error("price feed unavailable", zap.Error(err))
		return fail(c, fiber.StatusBadGateway, "price feed unavailable")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"prices": quotes})
}
