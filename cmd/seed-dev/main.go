package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/costing"
	"github.com/mmdatafocus/kitchen_backend/inventory"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var starterIngredients = []models.NewIngredient{
	{Name: "Harina de Trigo 000", Category: "Secos / Harinas", Unit: "Kg", Price: dec("1200"), Stock: dec("8.5"), MinStock: dec("10"), Supplier: "Distribuidora Central"},
	{Name: "Tomates Perita", Category: "Frescos / Verduras", Unit: "Kg", Price: dec("850"), Stock: dec("45"), MinStock: dec("15"), Supplier: "Huerta Verde S.A."},
	{Name: "Mozzarella Barra", Category: "Lácteos / Quesos", Unit: "Unid", Price: dec("4500"), Stock: dec("12"), MinStock: dec("5"), Supplier: "Lácteos del Sur"},
	{Name: "Aceite de Oliva Extra", Category: "Aceites", Unit: "L", Price: dec("8900"), Stock: dec("2"), MinStock: dec("5"), Supplier: "Importadora Gourmet"},
	{Name: "Carne Molida Especial", Category: "Carnes / Frescos", Unit: "Kg", Price: dec("3200"), Stock: dec("28.5"), MinStock: dec("10"), Supplier: "Frigorífico Modelo"},
}

// sample recipe lines by ingredient name
var pizzaLines = []struct {
	name     string
	quantity string
}{
	{"Harina de Trigo 000", "0.3"},
	{"Tomates Perita", "0.2"},
	{"Mozzarella Barra", "0.5"},
	{"Aceite de Oliva Extra", "0.02"},
}

func main() {
	businessId := flag.String("business", getenv("SEED_BUSINESS_ID", config.DefaultBusinessId()), "Business id to seed")
	driver := flag.String("driver", config.StoreDriver(), "mysql or memory (memory only prints what would be stored)")
	withRecipe := flag.Bool("recipe", true, "Also create a sample pizza recipe")
	flag.Parse()

	if strings.TrimSpace(*businessId) == "" {
		fmt.Fprintln(os.Stderr, "missing business id: set SEED_BUSINESS_ID or pass --business")
		os.Exit(2)
	}

	var s store.Store
	if *driver == "memory" {
		s = store.NewMemoryStore()
	} else {
		// config does not connect the DB in init(); do it explicitly here.
		config.ConnectDatabaseWithRetry()
		db := config.GetDB()
		if db == nil {
			fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
			os.Exit(1)
		}
		if err := models.MigrateTable(db); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		s = store.NewGormStore(db, config.GetLogger())
	}

	ctx := utils.SetBusinessIdInContext(context.Background(), strings.TrimSpace(*businessId))
	ctx = utils.SetCorrelationIdInContext(ctx, "seed-dev")

	byName, err := seedIngredients(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed ingredients: %v\n", err)
		os.Exit(1)
	}
	if *withRecipe {
		if err := seedRecipe(ctx, s, byName); err != nil {
			fmt.Fprintf(os.Stderr, "seed recipe: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded business %s: %d ingredients\n", *businessId, len(byName))
}

// seedIngredients adds the starter ingredients that are missing by name.
func seedIngredients(ctx context.Context, s store.Store) (map[string]*models.Ingredient, error) {
	book := inventory.NewBook(s)
	if err := book.Load(ctx); err != nil {
		return nil, err
	}
	byName := map[string]*models.Ingredient{}
	for _, ing := range book.Ingredients() {
		byName[ing.Name] = ing
	}
	for i := range starterIngredients {
		input := starterIngredients[i]
		if _, ok := byName[input.Name]; ok {
			continue
		}
		created, err := book.Add(ctx, &input)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", input.Name, err)
		}
		byName[created.Name] = created
		fmt.Printf("  + %s (%s)\n", created.Name, created.Status)
	}
	return byName, nil
}

func seedRecipe(ctx context.Context, s store.Store, byName map[string]*models.Ingredient) error {
	const name = "Pizza Muzzarella"
	existing, err := s.ListRecipes(ctx, store.RecipeFilter{Name: name})
	if err != nil {
		return err
	}
	for _, r := range existing {
		if r.Name == name {
			return nil
		}
	}

	sheet := costing.NewSheet(name, 1)
	sheet.Category = "Pizzas"
	sheet.Price = dec("9500")
	for _, l := range pizzaLines {
		if _, err := sheet.AddLine(byName[l.name], dec(l.quantity)); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}
	summary, err := sheet.Summary(costing.DefaultPolicy())
	if err != nil {
		return err
	}
	if _, err := costing.Save(ctx, s, sheet); err != nil {
		return err
	}
	fmt.Printf("  + %s cost %s suggested %s\n", name, summary.TotalCost.StringFixed(2), summary.SuggestedPrice.StringFixed(2))
	return nil
}
