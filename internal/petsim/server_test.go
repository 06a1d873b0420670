package petsim_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aarondl/opt/omit"
	"github.com/aarondl/opt/omitnull"
	"gotest.tools/v3/assert"

	"github.com/artefactual-labs/petstore/internal/petsim"
	"github.com/artefactual-labs/petstore/internal/petstore"
)

func testConfig() *petsim.Config {
	cfg := petsim.DefaultConfig()
	cfg.Pets = []petsim.PetConfig{
		{ID: 7, Name: "Rex", Status: petstore.StatusAvailable},
	}
	cfg.Users = []petsim.UserConfig{
		{Username: "a/b", Email: "slash@example.com"},
	}
	return cfg
}

func startClient(t *testing.T, opts ...petsim.ServerOption) (*petsim.Server, *petstore.Client) {
	t.Helper()
	srv := petsim.StartTestServer(t, testConfig(), opts...)
	return srv.Server, srv.Client
}

func TestServerPetWorkflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, client := startClient(t)

	pet := petstore.Pet{
		ID:        omitnull.From(int64(1)),
		Name:      "TestDog",
		PhotoURLs: []string{"https://example.com/dog.jpg"},
		Status:    omitnull.From(petstore.StatusAvailable),
	}
	res, err := client.CreatePet(ctx, pet)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)

	res, err = client.GetPet(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)
	assert.Equal(t, string(res.Body()), `{"id":1,"name":"TestDog","photoUrls":["https://example.com/dog.jpg"],"status":"available"}`)

	res, err = client.UpdatePetWithForm(ctx, 1, petstore.FormUpdate{Status: omit.From(petstore.StatusSold)})
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"code":200,"message":"success"}`)

	res, err = client.FindPetsByStatus(ctx, petstore.StatusAvailable)
	assert.NilError(t, err)
	var found []petstore.Pet
	assert.NilError(t, res.Decode(&found))
	assert.Equal(t, len(found), 1)
	assert.Equal(t, found[0].Name, "Rex")

	res, err = client.DeletePet(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)

	res, err = client.GetPet(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 404)
	assert.Equal(t, string(res.Body()), `{"code":1,"type":"error","message":"Pet not found"}`)

	snap := srv.Snapshot()
	assert.Equal(t, len(snap.Pets), 1)
	assert.Equal(t, snap.NextID, int64(2))
}

func TestServerUpdatePetWithoutID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := startClient(t)

	res, err := client.UpdatePet(ctx, petstore.Pet{Name: "Ghost", PhotoURLs: []string{}})
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 405)
	assert.Equal(t, string(res.Body()), `{"code":405,"type":"unknown","message":"Invalid input"}`)
}

func TestServerUserEndpoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := startClient(t)

	res, err := client.GetUser(ctx, "a/b")
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)
	assert.Equal(t, string(res.Body()), `{"username":"a/b","email":"slash@example.com"}`)

	res, err = client.CreateUsersWithArray(ctx, []petstore.User{
		{Username: omitnull.From("x")},
		{},
	})
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"code":200,"type":"unknown","message":"ok"}`)

	res, err = client.GetUser(ctx, "x")
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)

	res, err = client.Logout(ctx)
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"code":200,"type":"unknown","message":"ok"}`)
}

func TestServerUserNamedLikeStaticRoute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New(petsim.WithTokenSource(petsim.FixedToken(1234567)))
	srv, client := startClient(t, petsim.WithSimulator(sim))

	for _, name := range []string{"login", "logout"} {
		res, err := client.CreateUser(ctx, petstore.User{Username: omitnull.From(name)})
		assert.NilError(t, err)
		assert.Equal(t, res.StatusCode, 200)
	}
	assert.Equal(t, len(srv.Snapshot().Users), 2)

	res, err := client.GetUser(ctx, "login")
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"code":200,"type":"unknown","message":"logged in session: 1234567"}`)

	res, err = client.GetUser(ctx, "logout")
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"code":200,"type":"unknown","message":"ok"}`)

	// Only GET is shadowed.
	res, err = client.DeleteUser(ctx, "login")
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)
	assert.Equal(t, len(srv.Snapshot().Users), 1)

	// The in-process simulator has no routing and returns the user.
	res, err = sim.GetUser(ctx, "logout")
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"username":"logout"}`)
}

func TestServerLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New(petsim.WithTokenSource(petsim.FixedToken(7654321)))
	_, client := startClient(t, petsim.WithSimulator(sim))

	res, err := client.Login(ctx, "test user", "secret")
	assert.NilError(t, err)
	assert.Equal(t, string(res.Body()), `{"code":200,"type":"unknown","message":"logged in session: 7654321"}`)

	// The seeds are ignored when a simulator is supplied.
	res, err = client.GetPet(ctx, 7)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 404)
}

func TestServerRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, client := startClient(t)

	res, err := client.Call(ctx, http.MethodPost, "/pet", nil, strings.NewReader("{"), "application/json")
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 400)
	var msg petstore.APIResponse
	assert.NilError(t, res.Decode(&msg))
	assert.Equal(t, msg.Code.MustGet(), int64(400))
	assert.Equal(t, msg.Type.MustGet(), "error")

	res, err = client.Call(ctx, http.MethodGet, "/pet/abc", nil, nil, "")
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 400)

	res, err = client.Call(ctx, http.MethodPatch, "/pet/1", nil, nil, "")
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 405)
}

func TestServerMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv, client := startClient(t)

	_, err := client.GetPet(ctx, 7)
	assert.NilError(t, err)
	_, err = client.GetPet(ctx, 8)
	assert.NilError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL()+"/metrics", nil)
	assert.NilError(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.NilError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	blob, err := io.ReadAll(resp.Body)
	assert.NilError(t, err)

	body := string(blob)
	assert.Assert(t, strings.Contains(body, `petsim_requests_total{operation="getPet",status="200"} 1`), body)
	assert.Assert(t, strings.Contains(body, `petsim_requests_total{operation="getPet",status="404"} 1`), body)
}

func TestServerStartTwice(t *testing.T) {
	t.Parallel()

	srv := petsim.StartTestServer(t, testConfig())
	assert.ErrorIs(t, srv.Start(), petsim.ErrServerStarted)
}
