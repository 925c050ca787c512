package shopify

import (
	"context"
	"errors"
	"strings"
)

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"availableForSale"`
	Price            Money            `json:"price"`
	SelectedOptions  []SelectedOption `json:"selectedOptions,omitempty"`
	Image            *Image           `json:"image,omitempty"`
}

type Product struct {
	ID               string    `json:"id"`
	Handle           string    `json:"handle"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	AvailableForSale bool      `json:"availableForSale"`
	FeaturedImage    *Image    `json:"featuredImage,omitempty"`
	Images           []Image   `json:"images"`
	Variants         []Variant `json:"variants"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"pageInfo"`
}

const productFields = `
	id
	handle
	title
	description
	availableForSale
	featuredImage { url altText }
	images(first: 10) { nodes { url altText } }
	variants(first: 50) {
		nodes {
			id
			title
			availableForSale
			price { amount currencyCode }
			selectedOptions { name value }
			image { url altText }
		}
	}`

type productNode struct {
	ID               string `json:"id"`
	Handle           string `json:"handle"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	AvailableForSale bool   `json:"availableForSale"`
	FeaturedImage    *Image `json:"featuredImage"`
	Images           struct {
		Nodes []Image `json:"nodes"`
	} `json:"images"`
	Variants struct {
		Nodes []Variant `json:"nodes"`
	} `json:"variants"`
}

func (n productNode) toProduct() Product {
	p := Product{
		ID:               n.ID,
		Handle:           n.Handle,
		Title:            n.Title,
		Description:      n.Description,
		AvailableForSale: n.AvailableForSale,
		FeaturedImage:    n.FeaturedImage,
		Images:           n.Images.Nodes,
		Variants:         n.Variants.Nodes,
	}
	if p.Images == nil {
		p.Images = []Image{}
	}
	if p.Variants == nil {
		p.Variants = []Variant{}
	}
	return p
}

type productsData struct {
	Products struct {
		Nodes    []productNode `json:"nodes"`
		PageInfo PageInfo      `json:"pageInfo"`
	} `json:"products"`
}

type productData struct {
	Product *productNode `json:"product"`
}

var ErrProductNotFound = errors.New("shopify product not found")

// Products returns one page of products. after is the previous page's EndCursor.
func (c *Client) Products(ctx context.Context, first int, after string) (ProductPage, error) {
	if first <= 0 || first > 250 {
		first = 24
	}
	query := `
query products($first: Int!, $after: String) {
	products(first: $first, after: $after, sortKey: TITLE) {
		nodes {` + productFields + `
		}
		pageInfo { hasNextPage endCursor }
	}
}`
	variables := map[string]any{"first": first}
	if after = strings.TrimSpace(after); after != "" {
		variables["after"] = after
	}

	var data productsData
	if err := c.graphqlRequest(ctx, query, variables, &data); err != nil {
		return ProductPage{}, err
	}
	page := ProductPage{Products: make([]Product, 0, len(data.Products.Nodes)), PageInfo: data.Products.PageInfo}
	for _, n := range data.Products.Nodes {
		page.Products = append(page.Products, n.toProduct())
	}
	return page, nil
}

func (c *Client) Product(ctx context.Context, handle string) (Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Product{}, errors.New("shopify product handle is required")
	}
	query := `
query product($handle: String!) {
	product(handle: $handle) {` + productFields + `
	}
}`
	var data productData
	if err := c.graphqlRequest(ctx, query, map[string]any{"handle": handle}, &data); err != nil {
		return Product{}, err
	}
	if data.Product == nil {
		return Product{}, ErrProductNotFound
	}
	return data.Product.toProduct(), nil
}
