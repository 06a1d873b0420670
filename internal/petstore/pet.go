package petstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func (c *Client) CreatePet(ctx context.Context, pet Pet) (*Response, error) {
	return c.callJSON(ctx, http.MethodPost, "/pet", pet)
}

func (c *Client) GetPet(ctx context.Context, id int64) (*Response, error) {
	return c.get(ctx, fmt.Sprintf("/pet/%d", id), nil)
}

func (c *Client) UpdatePet(ctx context.Context, pet Pet) (*Response, error) {
	return c.callJSON(ctx, http.MethodPut, "/pet", pet)
}

func (c *Client) DeletePet(ctx context.Context, id int64) (*Response, error) {
	return c.delete(ctx, fmt.Sprintf("/pet/%d", id))
}

func (c *Client) FindPetsByStatus(ctx context.Context, status string) (*Response, error) {
	q := url.Values{}
	q.Set("status", status)
	return c.get(ctx, "/pet/findByStatus", q)
}

// UpdatePetWithForm posts only the form fields that carry a value.
func (c *Client) UpdatePetWithForm(ctx context.Context, id int64, form FormUpdate) (*Response, error) {
	p := url.Values{}
	if name, ok := form.NameValue(); ok {
		p.Set("name", name)
	}
	if status, ok := form.StatusValue(); ok {
		p.Set("status", status)
	}
	path := fmt.Sprintf("/pet/%d", id)
	return c.Call(ctx, http.MethodPost, path, nil, strings.NewReader(p.Encode()), "application/x-www-form-urlencoded")
}
