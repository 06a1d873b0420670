package petstore

import (
	"context"
	"net/http"
	"net/url"
)

func userPath(username string) string {
	return "/user/" + url.PathEscape(username)
}

func (c *Client) CreateUser(ctx context.Context, user User) (*Response, error) {
	return c.callJSON(ctx, http.MethodPost, "/user", user)
}

func (c *Client) GetUser(ctx context.Context, username string) (*Response, error) {
	return c.get(ctx, userPath(username), nil)
}

func (c *Client) UpdateUser(ctx context.Context, username string, user User) (*Response, error) {
	return c.callJSON(ctx, http.MethodPut, userPath(username), user)
}

func (c *Client) DeleteUser(ctx context.Context, username string) (*Response, error) {
	return c.delete(ctx, userPath(username))
}

func (c *Client) CreateUsersWithList(ctx context.Context, users []User) (*Response, error) {
	return c.callJSON(ctx, http.MethodPost, "/user/createWithList", users)
}

func (c *Client) CreateUsersWithArray(ctx context.Context, users []User) (*Response, error) {
	return c.callJSON(ctx, http.MethodPost, "/user/createWithArray", users)
}

func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	return c.get(ctx, "/user/login", q)
}

func (c *Client) Logout(ctx context.Context) (*Response, error) {
	return c.get(ctx, "/user/logout", nil)
}
