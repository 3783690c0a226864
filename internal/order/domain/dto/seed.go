package dto

import (
	"io"

	"campus-food/internal/order/domain/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// MenuSeed is the yaml layout read by the seed-menu command.
type MenuSeed struct {
	Items []MenuSeedItem `yaml:"items"`
}

type MenuSeedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	Available   *bool  `yaml:"available"`
}

// ParseMenuSeed decodes a seed file. Field validation is left to the menu
// service.
func ParseMenuSeed(r io.Reader) ([]models.FoodItemInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed MenuSeed
	if err := dec.Decode(&seed); err != nil {
		return nil, errors.Wrap(err, "decode menu seed")
	}

	out := make([]models.FoodItemInput, 0, len(seed.Items))
	for i, item := range seed.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d (%s): price", i+1, item.Name)
		}
		available := true
		if item.Available != nil {
			available = *item.Available
		}
		out = append(out, models.FoodItemInput{
			Name:        item.Name,
			Description: item.Description,
			Price:       price,
			Category:    models.Category(item.Category),
			IsAvailable: available,
		})
	}
	return out, nil
}
