package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/core/domain"
)

var seedFile string

type seedDoc struct {
	Items []seedItem `yaml:"items" validate:"required,min=1,dive"`
}

type seedItem struct {
	Name  string `yaml:"name" validate:"required,max=255"`
	Price string `yaml:"price" validate:"required,numeric"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert items from a YAML file",
	Long: `Seed reads a file of the form

  items:
    - name: pen
      price: "1.50"

and inserts every item whose name is not already present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()

		items, err := parseSeedItems(f, uuid.NewString, time.Now())
		if err != nil {
			return err
		}

		db, err := storage.ConnectMySQL(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := storage.NewMySQLAdapter(db).CreateItems(cmd.Context(), items)
		if err != nil {
			return fmt.Errorf("seed items: %w", err)
		}
		log.Info("items seeded", zap.Int("inserted", n), zap.Int("skipped", len(items)-n))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "items.yaml", "YAML file listing items")
}

func parseSeedItems(r io.Reader, newID func() string, now time.Time) ([]domain.Item, error) {
	var doc seedDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Items))
	items := make([]domain.Item, 0, len(doc.Items))
	for _, it := range doc.Items {
		if _, dup := seen[it.Name]; dup {
			return nil, fmt.Errorf("invalid seed file: item %q listed twice", it.Name)
		}
		seen[it.Name] = struct{}{}

		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("item %q: parse price: %w", it.Name, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("item %q: negative price", it.Name)
		}

		items = append(items, domain.Item{
			ID:        newID(),
			Name:      it.Name,
			Price:     price,
			CreatedAt: now,
		})
	}
	return items, nil
}
