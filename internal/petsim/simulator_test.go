package petsim_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aarondl/opt/omit"
	"github.com/aarondl/opt/omitnull"
	"gotest.tools/v3/assert"

	"github.com/artefactual-labs/petstore/internal/petsim"
	"github.com/artefactual-labs/petstore/internal/petstore"
)

// mustBody wraps a Backend call, failing the test on error and returning the
// status code and the raw body.
func mustBody(t *testing.T) func(*petstore.Response, error) (int, string) {
	return func(res *petstore.Response, err error) (int, string) {
		t.Helper()
		assert.NilError(t, err)
		return res.StatusCode, string(res.Body())
	}
}

func testPet(id int64, name, status string) petstore.Pet {
	pet := petstore.Pet{
		Name:      name,
		PhotoURLs: []string{"https://example.com/" + name + ".jpg"},
		Status:    omitnull.From(status),
	}
	if id != 0 {
		pet.ID = omitnull.From(id)
	}
	return pet
}

func TestCreatePetRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	pet := testPet(42, "Rex", petstore.StatusAvailable)
	pet.Category = omitnull.From(petstore.Category{ID: omitnull.From(int64(1)), Name: omitnull.From("Dogs")})
	pet.Tags = omitnull.From([]petstore.Tag{{ID: omitnull.From(int64(3)), Name: omitnull.From("friendly")}})

	code, created := mustBody(t)(sim.CreatePet(ctx, pet))
	assert.Equal(t, code, 200)

	code, fetched := mustBody(t)(sim.GetPet(ctx, 42))
	assert.Equal(t, code, 200)
	assert.Equal(t, fetched, created)
	assert.Equal(t, fetched, `{"id":42,"category":{"id":1,"name":"Dogs"},"name":"Rex","photoUrls":["https://example.com/Rex.jpg"],"tags":[{"id":3,"name":"friendly"}],"status":"available"}`)
}

func TestCreatePetAssignsCounterWhenIDMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	_, err := sim.CreatePet(ctx, testPet(0, "First", petstore.StatusAvailable))
	assert.NilError(t, err)
	_, err = sim.CreatePet(ctx, testPet(100, "Second", petstore.StatusAvailable))
	assert.NilError(t, err)
	_, err = sim.CreatePet(ctx, testPet(0, "Third", petstore.StatusAvailable))
	assert.NilError(t, err)

	// Explicit ids still consume a counter value.
	assert.Equal(t, sim.NextID(), int64(4))

	res, err := sim.GetPet(ctx, 1)
	assert.NilError(t, err)
	var first petstore.Pet
	assert.NilError(t, res.Decode(&first))
	assert.Equal(t, first.Name, "First")

	res, err = sim.GetPet(ctx, 3)
	assert.NilError(t, err)
	var third petstore.Pet
	assert.NilError(t, res.Decode(&third))
	assert.Equal(t, third.Name, "Third")

	res, err = sim.GetPet(ctx, 2)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 404)
}

func TestCreatePetStoresCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	pet := testPet(1, "Rex", petstore.StatusAvailable)
	_, err := sim.CreatePet(ctx, pet)
	assert.NilError(t, err)
	pet.PhotoURLs[0] = "mutated"

	_, body := mustBody(t)(sim.GetPet(ctx, 1))
	assert.Equal(t, body, `{"id":1,"name":"Rex","photoUrls":["https://example.com/Rex.jpg"],"status":"available"}`)
}

func TestDeletePetIsFinal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	_, err := sim.CreatePet(ctx, testPet(9, "Rex", petstore.StatusAvailable))
	assert.NilError(t, err)

	code, body := mustBody(t)(sim.DeletePet(ctx, 9))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":"9"}`)

	code, body = mustBody(t)(sim.GetPet(ctx, 9))
	assert.Equal(t, code, 404)
	assert.Equal(t, body, `{"code":1,"type":"error","message":"Pet not found"}`)

	code, _ = mustBody(t)(sim.DeletePet(ctx, 9))
	assert.Equal(t, code, 404)
}

func TestUpdatePet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Overwrites existing pet", func(t *testing.T) {
		t.Parallel()

		sim := petsim.New()
		_, err := sim.CreatePet(ctx, testPet(1, "Rex", petstore.StatusAvailable))
		assert.NilError(t, err)

		code, _ := mustBody(t)(sim.UpdatePet(ctx, testPet(1, "Max", petstore.StatusSold)))
		assert.Equal(t, code, 200)

		res, err := sim.GetPet(ctx, 1)
		assert.NilError(t, err)
		var pet petstore.Pet
		assert.NilError(t, res.Decode(&pet))
		assert.Equal(t, pet.Name, "Max")
		assert.Equal(t, pet.Status.MustGet(), petstore.StatusSold)
	})

	t.Run("Unknown id is not found", func(t *testing.T) {
		t.Parallel()

		sim := petsim.New()
		code, body := mustBody(t)(sim.UpdatePet(ctx, testPet(5, "Ghost", petstore.StatusAvailable)))
		assert.Equal(t, code, 404)
		assert.Equal(t, body, `{"code":1,"type":"error","message":"Pet not found"}`)

		code, _ = mustBody(t)(sim.GetPet(ctx, 5))
		assert.Equal(t, code, 404)
	})

	t.Run("Missing id is a precondition error", func(t *testing.T) {
		t.Parallel()

		sim := petsim.New()
		_, err := sim.CreatePet(ctx, testPet(1, "Rex", petstore.StatusAvailable))
		assert.NilError(t, err)
		before := sim.NextID()

		res, err := sim.UpdatePet(ctx, testPet(0, "Max", petstore.StatusSold))
		assert.ErrorIs(t, err, petsim.ErrPetIDRequired)
		assert.Assert(t, res == nil)
		assert.Equal(t, sim.NextID(), before)

		_, body := mustBody(t)(sim.GetPet(ctx, 1))
		assert.Equal(t, body, `{"id":1,"name":"Rex","photoUrls":["https://example.com/Rex.jpg"],"status":"available"}`)
	})
}

func TestFindPetsByStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	for _, pet := range []petstore.Pet{
		testPet(3, "C", petstore.StatusAvailable),
		testPet(1, "A", petstore.StatusSold),
		testPet(2, "B", petstore.StatusAvailable),
		testPet(4, "D", "Available"),
		{ID: omitnull.From(int64(5)), Name: "E", PhotoURLs: []string{}},
	} {
		_, err := sim.CreatePet(ctx, pet)
		assert.NilError(t, err)
	}

	res, err := sim.FindPetsByStatus(ctx, petstore.StatusAvailable)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)

	var found []petstore.Pet
	assert.NilError(t, res.Decode(&found))
	names := make([]string, 0, len(found))
	for _, pet := range found {
		names = append(names, pet.Name)
	}
	assert.DeepEqual(t, names, []string{"C", "B"})

	code, body := mustBody(t)(sim.FindPetsByStatus(ctx, petstore.StatusPending))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `[]`)
}

func TestFindPetsByStatusKeepsPositionOnOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	for _, pet := range []petstore.Pet{
		testPet(1, "A", petstore.StatusAvailable),
		testPet(2, "B", petstore.StatusAvailable),
	} {
		_, err := sim.CreatePet(ctx, pet)
		assert.NilError(t, err)
	}
	_, err := sim.UpdatePet(ctx, testPet(1, "A2", petstore.StatusAvailable))
	assert.NilError(t, err)

	res, err := sim.FindPetsByStatus(ctx, petstore.StatusAvailable)
	assert.NilError(t, err)
	var found []petstore.Pet
	assert.NilError(t, res.Decode(&found))
	assert.Equal(t, len(found), 2)
	assert.Equal(t, found[0].Name, "A2")
	assert.Equal(t, found[1].Name, "B")
}

func TestUpdatePetWithForm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	type test struct {
		name       string
		form       petstore.FormUpdate
		wantName   string
		wantStatus string
	}
	for _, tc := range []test{
		{
			name:       "Status only",
			form:       petstore.FormUpdate{Status: omit.From(petstore.StatusSold)},
			wantName:   "Rex",
			wantStatus: petstore.StatusSold,
		},
		{
			name:       "Name only",
			form:       petstore.FormUpdate{Name: omit.From("Max")},
			wantName:   "Max",
			wantStatus: petstore.StatusAvailable,
		},
		{
			name:       "Empty values are ignored",
			form:       petstore.FormUpdate{Name: omit.From(""), Status: omit.From("")},
			wantName:   "Rex",
			wantStatus: petstore.StatusAvailable,
		},
		{
			name:       "Both",
			form:       petstore.FormUpdate{Name: omit.From("Max"), Status: omit.From(petstore.StatusPending)},
			wantName:   "Max",
			wantStatus: petstore.StatusPending,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sim := petsim.New()
			_, err := sim.CreatePet(ctx, testPet(1, "Rex", petstore.StatusAvailable))
			assert.NilError(t, err)

			code, body := mustBody(t)(sim.UpdatePetWithForm(ctx, 1, tc.form))
			assert.Equal(t, code, 200)
			assert.Equal(t, body, `{"code":200,"message":"success"}`)

			res, err := sim.GetPet(ctx, 1)
			assert.NilError(t, err)
			var pet petstore.Pet
			assert.NilError(t, res.Decode(&pet))
			assert.Equal(t, pet.Name, tc.wantName)
			assert.Equal(t, pet.Status.MustGet(), tc.wantStatus)
		})
	}

	t.Run("Unknown pet", func(t *testing.T) {
		t.Parallel()

		sim := petsim.New()
		code, body := mustBody(t)(sim.UpdatePetWithForm(ctx, 1, petstore.FormUpdate{Status: omit.From(petstore.StatusSold)}))
		assert.Equal(t, code, 404)
		assert.Equal(t, body, `{"code":1,"type":"error","message":"Pet not found"}`)
	})
}

func TestGetInventory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	sim := petsim.New()
	_, err := sim.CreatePet(ctx, testPet(1, "Rex", petstore.StatusSold))
	assert.NilError(t, err)

	code, body := mustBody(t)(sim.GetInventory(ctx))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"available":10,"pending":5,"sold":3}`)

	custom := petsim.New(petsim.WithInventory(petstore.Inventory{"available": 1}))
	_, body = mustBody(t)(custom.GetInventory(ctx))
	assert.Equal(t, body, `{"available":1}`)
}

func TestOrderWorkflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	order := petstore.Order{
		ID:     omitnull.From(int64(1)),
		PetID:  omitnull.From(int64(123)),
		Status: omitnull.From("placed"),
	}
	code, body := mustBody(t)(sim.PlaceOrder(ctx, order))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"id":1,"petId":123,"status":"placed"}`)

	res, err := sim.GetOrder(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)
	var got petstore.Order
	assert.NilError(t, res.Decode(&got))
	assert.Equal(t, got.Status.MustGet(), "placed")

	code, body = mustBody(t)(sim.DeleteOrder(ctx, 1))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":"1"}`)

	code, body = mustBody(t)(sim.GetOrder(ctx, 1))
	assert.Equal(t, code, 404)
	assert.Equal(t, body, `{"code":1,"type":"error","message":"Order not found"}`)

	code, _ = mustBody(t)(sim.DeleteOrder(ctx, 1))
	assert.Equal(t, code, 404)
}

func TestPlaceOrderSharesCounterWithPets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	_, err := sim.CreatePet(ctx, testPet(0, "Rex", petstore.StatusAvailable))
	assert.NilError(t, err)
	_, err = sim.PlaceOrder(ctx, petstore.Order{Status: omitnull.From("placed")})
	assert.NilError(t, err)

	code, _ := mustBody(t)(sim.GetOrder(ctx, 2))
	assert.Equal(t, code, 200)
	code, _ = mustBody(t)(sim.GetOrder(ctx, 1))
	assert.Equal(t, code, 404)
}

func TestUserWorkflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	user := petstore.User{
		ID:       omitnull.From(int64(77)),
		Username: omitnull.From("alice"),
		Email:    omitnull.From("alice@example.com"),
	}
	code, body := mustBody(t)(sim.CreateUser(ctx, user))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":"77"}`)

	code, body = mustBody(t)(sim.GetUser(ctx, "alice"))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"id":77,"username":"alice","email":"alice@example.com"}`)

	update := petstore.User{Username: omitnull.From("alice"), Email: omitnull.From("new@example.com")}
	code, body = mustBody(t)(sim.UpdateUser(ctx, "alice", update))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":""}`)

	res, err := sim.GetUser(ctx, "alice")
	assert.NilError(t, err)
	var got petstore.User
	assert.NilError(t, res.Decode(&got))
	assert.Equal(t, got.Email.MustGet(), "new@example.com")

	code, body = mustBody(t)(sim.DeleteUser(ctx, "alice"))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":"alice"}`)

	code, body = mustBody(t)(sim.GetUser(ctx, "alice"))
	assert.Equal(t, code, 404)
	assert.Equal(t, body, `{"code":1,"type":"error","message":"User not found"}`)

	code, _ = mustBody(t)(sim.UpdateUser(ctx, "alice", update))
	assert.Equal(t, code, 404)
	code, _ = mustBody(t)(sim.DeleteUser(ctx, "alice"))
	assert.Equal(t, code, 404)
}

func TestCreateUserDefaultsUsername(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	_, err := sim.CreatePet(ctx, testPet(0, "Rex", petstore.StatusAvailable))
	assert.NilError(t, err)
	_, err = sim.CreateUser(ctx, petstore.User{Email: omitnull.From("anon@example.com")})
	assert.NilError(t, err)

	code, body := mustBody(t)(sim.GetUser(ctx, "user2"))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"email":"anon@example.com"}`)
	assert.Equal(t, sim.NextID(), int64(3))
}

func TestCreateUsersBulkSkipsEntriesWithoutUsername(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for name, create := range map[string]func(*petsim.Simulator, []petstore.User) (*petstore.Response, error){
		"List": func(sim *petsim.Simulator, users []petstore.User) (*petstore.Response, error) {
			return sim.CreateUsersWithList(ctx, users)
		},
		"Array": func(sim *petsim.Simulator, users []petstore.User) (*petstore.Response, error) {
			return sim.CreateUsersWithArray(ctx, users)
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sim := petsim.New()
			code, body := mustBody(t)(create(sim, []petstore.User{
				{Username: omitnull.From("a")},
				{},
				{Username: omitnull.From("")},
				{Username: omitnull.From("b")},
			}))
			assert.Equal(t, code, 200)
			assert.Equal(t, body, `{"code":200,"type":"unknown","message":"ok"}`)

			for _, username := range []string{"a", "b"} {
				code, _ := mustBody(t)(sim.GetUser(ctx, username))
				assert.Equal(t, code, 200, username)
			}
			code, _ = mustBody(t)(sim.GetUser(ctx, ""))
			assert.Equal(t, code, 404)

			snap := sim.Snapshot()
			assert.Equal(t, len(snap.Users), 2)
			assert.Equal(t, sim.NextID(), int64(1))
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	sim := petsim.New(petsim.WithTokenSource(petsim.FixedToken(1234567)))
	code, body := mustBody(t)(sim.Login(ctx, "nobody", "wrong"))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":"logged in session: 1234567"}`)

	code, body = mustBody(t)(sim.Logout(ctx))
	assert.Equal(t, code, 200)
	assert.Equal(t, body, `{"code":200,"type":"unknown","message":"ok"}`)
}

func TestLoginDefaultTokenRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	for range 20 {
		res, err := sim.Login(ctx, "user", "pass")
		assert.NilError(t, err)
		var msg petstore.APIResponse
		assert.NilError(t, res.Decode(&msg))

		var token int
		_, err = fmt.Sscanf(msg.Message.MustGet(), "logged in session: %d", &token)
		assert.NilError(t, err)
		assert.Assert(t, token >= 1000000 && token <= 9999999, token)
	}
}

func TestNotFoundIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	for range 3 {
		code, body := mustBody(t)(sim.GetPet(ctx, 1))
		assert.Equal(t, code, 404)
		assert.Equal(t, body, `{"code":1,"type":"error","message":"Pet not found"}`)

		code, body = mustBody(t)(sim.GetOrder(ctx, 1))
		assert.Equal(t, code, 404)
		assert.Equal(t, body, `{"code":1,"type":"error","message":"Order not found"}`)

		code, body = mustBody(t)(sim.GetUser(ctx, "nobody"))
		assert.Equal(t, code, 404)
		assert.Equal(t, body, `{"code":1,"type":"error","message":"User not found"}`)
	}

	snap := sim.Snapshot()
	assert.Equal(t, len(snap.Pets), 0)
	assert.Equal(t, len(snap.Orders), 0)
	assert.Equal(t, len(snap.Users), 0)
	assert.Equal(t, snap.NextID, int64(1))
}

func TestSimulatorsAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := petsim.New()
	b := petsim.New()

	_, err := a.CreatePet(ctx, testPet(0, "Rex", petstore.StatusAvailable))
	assert.NilError(t, err)

	assert.Equal(t, a.NextID(), int64(2))
	assert.Equal(t, b.NextID(), int64(1))
	code, _ := mustBody(t)(b.GetPet(ctx, 1))
	assert.Equal(t, code, 404)
}

func TestPetScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := petsim.New()

	pet := petstore.Pet{
		ID:        omitnull.From(int64(1)),
		Name:      "TestDog",
		PhotoURLs: []string{"https://example.com/dog.jpg"},
	}
	code, _ := mustBody(t)(sim.CreatePet(ctx, pet))
	assert.Equal(t, code, 200)

	res, err := sim.GetPet(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 200)
	var got petstore.Pet
	assert.NilError(t, res.Decode(&got))
	assert.Equal(t, got.Name, "TestDog")

	code, _ = mustBody(t)(sim.DeletePet(ctx, 1))
	assert.Equal(t, code, 200)

	res, err = sim.GetPet(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, res.StatusCode, 404)
	var msg petstore.APIResponse
	assert.NilError(t, res.Decode(&msg))
	assert.Equal(t, msg.Message.MustGet(), "Pet not found")
}
