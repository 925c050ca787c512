package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type CartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type CartLineUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CartLine struct {
	ID          string  `json:"id"`
	Quantity    int     `json:"quantity"`
	Merchandise Variant `json:"merchandise"`
	Product     struct {
		Handle string `json:"handle"`
		Title  string `json:"title"`
	} `json:"product"`
	Total Money `json:"total"`
}

type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	Subtotal      Money      `json:"subtotal"`
	Total         Money      `json:"total"`
	Lines         []CartLine `json:"lines"`
}

var (
	ErrCartNotFound = errors.New("shopify cart not found")
	ErrInvalidLines = errors.New("invalid cart lines")
)

const cartFields = `
	id
	checkoutUrl
	totalQuantity
	cost {
		subtotalAmount { amount currencyCode }
		totalAmount { amount currencyCode }
	}
	lines(first: 100) {
		nodes {
			id
			quantity
			cost { totalAmount { amount currencyCode } }
			merchandise {
				... on ProductVariant {
					id
					title
					availableForSale
					price { amount currencyCode }
					selectedOptions { name value }
					image { url altText }
					product { handle title }
				}
			}
		}
	}`

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		SubtotalAmount Money `json:"subtotalAmount"`
		TotalAmount    Money `json:"totalAmount"`
	} `json:"cost"`
	Lines struct {
		Nodes []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
			Cost     struct {
				TotalAmount Money `json:"totalAmount"`
			} `json:"cost"`
			Merchandise struct {
				Variant
				Product struct {
					Handle string `json:"handle"`
					Title  string `json:"title"`
				} `json:"product"`
			} `json:"merchandise"`
		} `json:"nodes"`
	} `json:"lines"`
}

func (n *cartNode) toCart() Cart {
	cart := Cart{
		ID:            n.ID,
		CheckoutURL:   n.CheckoutURL,
		TotalQuantity: n.TotalQuantity,
		Subtotal:      n.Cost.SubtotalAmount,
		Total:         n.Cost.TotalAmount,
		Lines:         make([]CartLine, 0, len(n.Lines.Nodes)),
	}
	for _, ln := range n.Lines.Nodes {
		line := CartLine{ID: ln.ID, Quantity: ln.Quantity, Merchandise: ln.Merchandise.Variant, Total: ln.Cost.TotalAmount}
		line.Product.Handle = ln.Merchandise.Product.Handle
		line.Product.Title = ln.Merchandise.Product.Title
		cart.Lines = append(cart.Lines, line)
	}
	return cart
}

type cartPayload struct {
	Cart       *cartNode   `json:"cart"`
	UserErrors []UserError `json:"userErrors"`
}

func (p cartPayload) result(action string) (Cart, error) {
	if err := userErrorsToError(action, p.UserErrors); err != nil {
		return Cart{}, err
	}
	if p.Cart == nil {
		return Cart{}, ErrCartNotFound
	}
	return p.Cart.toCart(), nil
}

func (c *Client) CartCreate(ctx context.Context, lines []CartLineInput) (Cart, error) {
	if err := checkLines(lines); err != nil {
		return Cart{}, err
	}
	query := `
mutation cartCreate($input: CartInput!) {
	cartCreate(input: $input) {
		cart {` + cartFields + `
		}
		userErrors { field message code }
	}
}`
	var data struct {
		CartCreate cartPayload `json:"cartCreate"`
	}
	if err := c.graphqlRequest(ctx, query, map[string]any{"input": map[string]any{"lines": lines}}, &data); err != nil {
		return Cart{}, err
	}
	return data.CartCreate.result("cartCreate")
}

func (c *Client) Cart(ctx context.Context, cartID string) (Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return Cart{}, fmt.Errorf("%w: cart id is required", ErrInvalidLines)
	}
	query := `
query cart($id: ID!) {
	cart(id: $id) {` + cartFields + `
	}
}`
	var data struct {
		Cart *cartNode `json:"cart"`
	}
	if err := c.graphqlRequest(ctx, query, map[string]any{"id": cartID}, &data); err != nil {
		return Cart{}, err
	}
	if data.Cart == nil {
		return Cart{}, ErrCartNotFound
	}
	return data.Cart.toCart(), nil
}

func (c *Client) CartLinesAdd(ctx context.Context, cartID string, lines []CartLineInput) (Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return Cart{}, fmt.Errorf("%w: cart id is required", ErrInvalidLines)
	}
	if err := checkLines(lines); err != nil {
		return Cart{}, err
	}
	query := `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
	cartLinesAdd(cartId: $cartId, lines: $lines) {
		cart {` + cartFields + `
		}
		userErrors { field message code }
	}
}`
	var data struct {
		CartLinesAdd cartPayload `json:"cartLinesAdd"`
	}
	if err := c.graphqlRequest(ctx, query, map[string]any{"cartId": cartID, "lines": lines}, &data); err != nil {
		return Cart{}, err
	}
	return data.CartLinesAdd.result("cartLinesAdd")
}

func (c *Client) CartLinesUpdate(ctx context.Context, cartID string, lines []CartLineUpdate) (Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return Cart{}, fmt.Errorf("%w: cart id is required", ErrInvalidLines)
	}
	if len(lines) == 0 {
		return Cart{}, fmt.Errorf("%w: at least one cart line is required", ErrInvalidLines)
	}
	for _, l := range lines {
		if strings.TrimSpace(l.ID) == "" || l.Quantity < 0 {
			return Cart{}, fmt.Errorf("%w: cart line id and a non-negative quantity are required", ErrInvalidLines)
		}
	}
	query := `
mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
	cartLinesUpdate(cartId: $cartId, lines: $lines) {
		cart {` + cartFields + `
		}
		userErrors { field message code }
	}
}`
	var data struct {
		CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
	}
	if err := c.graphqlRequest(ctx, query, map[string]any{"cartId": cartID, "lines": lines}, &data); err != nil {
		return Cart{}, err
	}
	return data.CartLinesUpdate.result("cartLinesUpdate")
}

func (c *Client) CartLinesRemove(ctx context.Context, cartID string, lineIDs []string) (Cart, error) {
	if strings.TrimSpace(cartID) == "" {
		return Cart{}, fmt.Errorf("%w: cart id is required", ErrInvalidLines)
	}
	if len(lineIDs) == 0 {
		return Cart{}, fmt.Errorf("%w: at least one cart line id is required", ErrInvalidLines)
	}
	query := `
mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
	cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
		cart {` + cartFields + `
		}
		userErrors { field message code }
	}
}`
	var data struct {
		CartLinesRemove cartPayload `json:"cartLinesRemove"`
	}
	if err := c.graphqlRequest(ctx, query, map[string]any{"cartId": cartID, "lineIds": lineIDs}, &data); err != nil {
		return Cart{}, err
	}
	return data.CartLinesRemove.result("cartLinesRemove")
}

func checkLines(lines []CartLineInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one cart line is required", ErrInvalidLines)
	}
	for _, l := range lines {
		if strings.TrimSpace(l.MerchandiseID) == "" || l.Quantity <= 0 {
			return fmt.Errorf("%w: cart lines need a merchandise id and a positive quantity", ErrInvalidLines)
		}
	}
	return nil
}
