package catalog

import (
	"sort"
	"strings"
)

// Filter applies the same filtering the live endpoint applies server-side:
// exact category match, then a case-insensitive substring search over name
// and description.
func Filter(products []Product, q Query) []Product {
	out := make([]Product, 0, len(products))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, p := range products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SinglePage wraps a fully materialized product list in the paged shape.
func SinglePage(products []Product) ProductPage {
	if products == nil {
		products = []Product{}
	}
	return ProductPage{
		Products: products,
		Total:    len(products),
		Page:     1,
		Pages:    1,
	}
}

// EmptyPage is returned when neither path produced data.
func EmptyPage() ProductPage {
	return ProductPage{Products: []Product{}, Total: 0, Page: 1, Pages: 0}
}

// Featured returns the products flagged as featured.
func Featured(products []Product) []Product {
	out := make([]Product, 0)
	for _, p := range products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// FindByID returns the product with the given id.
func FindByID(products []Product, id string) (*Product, bool) {
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, true
		}
	}
	return nil, false
}

// CountCategories derives categories from product data, counting products
// per category. Categories are sorted by id for stable output.
func CountCategories(products []Product) []Category {
	counts := make(map[string]int)
	for _, p := range products {
		if p.Category != "" {
			counts[p.Category]++
		}
	}

	categories := make([]Category, 0, len(counts))
	for id, n := range counts {
		categories = append(categories, Category{ID: id, Name: categoryName(id), Count: n})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories
}

// categoryName turns "wedding-cakes" into "Wedding cakes".
func categoryName(id string) string {
	if id == "" {
		return id
	}
	name := strings.ToUpper(id[:1]) + id[1:]
	return strings.Replace(name, "-", " ", 1)
}
