package petstore

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) GetInventory(ctx context.Context) (*Response, error) {
	return c.get(ctx, "/store/inventory", nil)
}

func (c *Client) PlaceOrder(ctx context.Context, order Order) (*Response, error) {
	return c.callJSON(ctx, http.MethodPost, "/store/order", order)
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Response, error) {
	return c.get(ctx, fmt.Sprintf("/store/order/%d", id), nil)
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) (*Response, error) {
	return c.delete(ctx, fmt.Sprintf("/store/order/%d", id))
}
