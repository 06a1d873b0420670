package harness

import (
	"context"
	"fmt"

	"github.com/aarondl/opt/omit"
	"github.com/aarondl/opt/omitnull"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

// Suite returns the scenario catalogue. Every scenario asks newBackend for
// its own backend, so state never leaks from one scenario to the next when
// the factory returns fresh simulators.
func Suite(newBackend func() petstore.Backend) func(*T) {
	s := &suite{newBackend: newBackend, fixtures: NewFixtures()}
	return func(t *T) {
		t.Run("pets", s.pets)
		t.Run("store", s.store)
		t.Run("users", s.users)
		t.Run("errors", s.errors)
	}
}

type suite struct {
	newBackend func() petstore.Backend
	fixtures   *Fixtures
}

func (s *suite) pets(t *T) {
	t.Run("add pet", func(t *T) {
		api := s.newBackend()
		pet := petstore.Pet{
			ID:        omitnull.From(int64(1)),
			Name:      "TestDog",
			PhotoURLs: []string{"https://example.com/photo.jpg"},
			Tags:      omitnull.From([]petstore.Tag{{ID: omitnull.From(int64(1)), Name: omitnull.From("friendly")}}),
			Status:    omitnull.From(petstore.StatusAvailable),
		}
		res := addPet(t, api, pet)
		StatusCode(t, res, 200)
		body := Body(t, res)
		FieldEquals(t, body, "name", "TestDog")
		FieldEquals(t, body, "status", petstore.StatusAvailable)
	})

	t.Run("get pet", func(t *T) {
		api := s.newBackend()
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(1)), Name: "TestDog", PhotoURLs: []string{}})

		res := getPet(t, api, 1)
		StatusCode(t, res, 200)
		body := Body(t, res)
		FieldEquals(t, body, "id", 1)
		FieldEquals(t, body, "name", "TestDog")
	})

	t.Run("round trip", func(t *T) {
		api := s.newBackend()
		pet := s.fixtures.Pet(11, petstore.StatusPending)
		created := addPet(t, api, pet)

		res := getPet(t, api, 11)
		StatusCode(t, res, 200)
		t.Step("check stored pet equals payload", func() {
			require.JSONEq(t, string(created.Body()), string(res.Body()))
		})
	})

	t.Run("update pet", func(t *T) {
		api := s.newBackend()
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(1)), Name: "OldName", PhotoURLs: []string{}})

		updated := petstore.Pet{
			ID:        omitnull.From(int64(1)),
			Name:      "NewName",
			PhotoURLs: []string{},
			Status:    omitnull.From(petstore.StatusSold),
		}
		res := Call(t, "update pet", func(ctx context.Context) (*petstore.Response, error) {
			return api.UpdatePet(ctx, updated)
		})
		StatusCode(t, res, 200)
		body := Body(t, res)
		FieldEquals(t, body, "name", "NewName")
		FieldEquals(t, body, "status", petstore.StatusSold)
	})

	t.Run("delete pet", func(t *T) {
		api := s.newBackend()
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(1)), Name: "TestDog", PhotoURLs: []string{}})

		StatusCode(t, getPet(t, api, 1), 200)
		res := Call(t, "delete pet by id: 1", func(ctx context.Context) (*petstore.Response, error) {
			return api.DeletePet(ctx, 1)
		})
		StatusCode(t, res, 200)
		FieldEquals(t, Body(t, res), "message", "1")

		res = getPet(t, api, 1)
		StatusCode(t, res, 404)
		FieldEquals(t, Body(t, res), "message", petstore.MessagePetNotFound)
	})

	t.Run("find pets by status", func(t *T) {
		api := s.newBackend()
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(1)), Name: "Dog1", Status: omitnull.From(petstore.StatusAvailable), PhotoURLs: []string{}})
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(2)), Name: "Dog2", Status: omitnull.From(petstore.StatusSold), PhotoURLs: []string{}})
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(3)), Name: "Dog3", Status: omitnull.From(petstore.StatusAvailable), PhotoURLs: []string{}})

		res := findPets(t, api, petstore.StatusAvailable)
		StatusCode(t, res, 200)
		pets := IsList(t, Body(t, res))
		t.Step("check only matching pets in insertion order", func() {
			require.Len(t, pets, 2)
			var names []any
			for _, p := range pets {
				pet, ok := p.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, petstore.StatusAvailable, pet["status"])
				names = append(names, pet["name"])
			}
			assert.Equal(t, []any{"Dog1", "Dog3"}, names)
		})

		res = findPets(t, api, petstore.StatusPending)
		StatusCode(t, res, 200)
		pets = IsList(t, Body(t, res))
		t.Step("check no pets match", func() {
			require.Empty(t, pets)
		})
	})

	t.Run("update pet with form", func(t *T) {
		api := s.newBackend()
		addPet(t, api, petstore.Pet{ID: omitnull.From(int64(1)), Name: "TestDog", Status: omitnull.From(petstore.StatusAvailable), PhotoURLs: []string{}})

		form := petstore.FormUpdate{Status: omit.From(petstore.StatusSold)}
		res := Call(t, "update pet with form (id: 1, name: <none>, status: sold)", func(ctx context.Context) (*petstore.Response, error) {
			return api.UpdatePetWithForm(ctx, 1, form)
		})
		StatusCode(t, res, 200)
		FieldEquals(t, Body(t, res), "message", "success")

		body := Body(t, getPet(t, api, 1))
		FieldEquals(t, body, "name", "TestDog")
		FieldEquals(t, body, "status", petstore.StatusSold)
	})
}

func (s *suite) store(t *T) {
	t.Run("get inventory", func(t *T) {
		api := s.newBackend()
		res := Call(t, "get store inventory", func(ctx context.Context) (*petstore.Response, error) {
			return api.GetInventory(ctx)
		})
		StatusCode(t, res, 200)
		inventory := IsObject(t, Body(t, res))
		for _, status := range []string{petstore.StatusAvailable, petstore.StatusPending, petstore.StatusSold} {
			ContainsField(t, inventory, status)
		}
	})

	t.Run("order workflow", func(t *T) {
		api := s.newBackend()
		order := s.fixtures.Order(1, 123)
		res := Call(t, "place order", func(ctx context.Context) (*petstore.Response, error) {
			return api.PlaceOrder(ctx, order)
		})
		StatusCode(t, res, 200)

		res = getOrder(t, api, 1)
		StatusCode(t, res, 200)
		body := Body(t, res)
		FieldEquals(t, body, "id", 1)
		FieldEquals(t, body, "petId", 123)
		FieldEquals(t, body, "status", "placed")

		res = Call(t, "delete order by id: 1", func(ctx context.Context) (*petstore.Response, error) {
			return api.DeleteOrder(ctx, 1)
		})
		StatusCode(t, res, 200)

		res = getOrder(t, api, 1)
		StatusCode(t, res, 404)
		FieldEquals(t, Body(t, res), "message", petstore.MessageOrderNotFound)
	})
}

func (s *suite) users(t *T) {
	t.Run("user workflow", func(t *T) {
		api := s.newBackend()
		user := petstore.User{
			ID:        omitnull.From(int64(1)),
			Username:  omitnull.From("testuser"),
			FirstName: omitnull.From("Test"),
			LastName:  omitnull.From("User"),
			Email:     omitnull.From("test@example.com"),
		}
		res := Call(t, "create user", func(ctx context.Context) (*petstore.Response, error) {
			return api.CreateUser(ctx, user)
		})
		StatusCode(t, res, 200)
		FieldEquals(t, Body(t, res), "message", "1")

		res = getUser(t, api, "testuser")
		StatusCode(t, res, 200)
		body := Body(t, res)
		FieldEquals(t, body, "username", "testuser")
		FieldEquals(t, body, "email", "test@example.com")

		updated := petstore.User{
			Username:  omitnull.From("testuser"),
			FirstName: omitnull.From("Updated"),
			Email:     omitnull.From("updated@example.com"),
		}
		res = Call(t, "update user: testuser", func(ctx context.Context) (*petstore.Response, error) {
			return api.UpdateUser(ctx, "testuser", updated)
		})
		StatusCode(t, res, 200)

		body = Body(t, getUser(t, api, "testuser"))
		FieldEquals(t, body, "firstName", "Updated")
		FieldEquals(t, body, "email", "updated@example.com")

		res = Call(t, "delete user: testuser", func(ctx context.Context) (*petstore.Response, error) {
			return api.DeleteUser(ctx, "testuser")
		})
		StatusCode(t, res, 200)
		FieldEquals(t, Body(t, res), "message", "testuser")

		StatusCode(t, getUser(t, api, "testuser"), 404)
	})

	bulk := map[string]func(petstore.Backend) func(context.Context, []petstore.User) (*petstore.Response, error){
		"create users with list": func(api petstore.Backend) func(context.Context, []petstore.User) (*petstore.Response, error) {
			return api.CreateUsersWithList
		},
		"create users with array": func(api petstore.Backend) func(context.Context, []petstore.User) (*petstore.Response, error) {
			return api.CreateUsersWithArray
		},
	}
	for _, name := range []string{"create users with list", "create users with array"} {
		t.Run(name, func(t *T) {
			api := s.newBackend()
			users := []petstore.User{
				s.fixtures.User(1, "user1"),
				s.fixtures.User(0, ""),
				s.fixtures.User(2, "user2"),
			}
			create := bulk[name](api)
			res := Call(t, name, func(ctx context.Context) (*petstore.Response, error) {
				return create(ctx, users)
			})
			StatusCode(t, res, 200)
			FieldEquals(t, Body(t, res), "message", "ok")

			StatusCode(t, getUser(t, api, "user1"), 200)
			StatusCode(t, getUser(t, api, "user2"), 200)
		})
	}

	t.Run("login and logout", func(t *T) {
		api := s.newBackend()
		res := Call(t, "login user: test", func(ctx context.Context) (*petstore.Response, error) {
			return api.Login(ctx, "test", "password")
		})
		StatusCode(t, res, 200)
		body := Body(t, res)
		ContainsField(t, body, "message")
		t.Step("check session token in message", func() {
			obj, _ := body.(map[string]any)
			msg, _ := obj["message"].(string)
			var token int
			_, err := fmt.Sscanf(msg, "logged in session: %d", &token)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, token, 1000000)
			assert.LessOrEqual(t, token, 9999999)
		})

		res = Call(t, "logout user", func(ctx context.Context) (*petstore.Response, error) {
			return api.Logout(ctx)
		})
		StatusCode(t, res, 200)
		FieldEquals(t, Body(t, res), "message", "ok")
	})
}

func (s *suite) errors(t *T) {
	t.Run("nonexistent resources", func(t *T) {
		api := s.newBackend()
		for range 2 {
			res := getPet(t, api, 999)
			StatusCode(t, res, 404)
			FieldEquals(t, Body(t, res), "message", petstore.MessagePetNotFound)

			res = getOrder(t, api, 999)
			StatusCode(t, res, 404)
			FieldEquals(t, Body(t, res), "message", petstore.MessageOrderNotFound)

			res = getUser(t, api, "nonexistent")
			StatusCode(t, res, 404)
			FieldEquals(t, Body(t, res), "message", petstore.MessageUserNotFound)
		}
	})

	t.Run("not found body shape", func(t *T) {
		api := s.newBackend()
		body := Body(t, getPet(t, api, 999))
		FieldEquals(t, body, "code", 1)
		FieldEquals(t, body, "type", "error")
	})
}

func addPet(t *T, api petstore.Backend, pet petstore.Pet) *petstore.Response {
	return Call(t, "add pet", func(ctx context.Context) (*petstore.Response, error) {
		return api.CreatePet(ctx, pet)
	})
}

func getPet(t *T, api petstore.Backend, id int64) *petstore.Response {
	return Call(t, fmt.Sprintf("get pet by id: %d", id), func(ctx context.Context) (*petstore.Response, error) {
		return api.GetPet(ctx, id)
	})
}

func findPets(t *T, api petstore.Backend, status string) *petstore.Response {
	return Call(t, fmt.Sprintf("find pets by status: %s", status), func(ctx context.Context) (*petstore.Response, error) {
		return api.FindPetsByStatus(ctx, status)
	})
}

func getOrder(t *T, api petstore.Backend, id int64) *petstore.Response {
	return Call(t, fmt.Sprintf("get order by id: %d", id), func(ctx context.Context) (*petstore.Response, error) {
		return api.GetOrder(ctx, id)
	})
}

func getUser(t *T, api petstore.Backend, username string) *petstore.Response {
	return Call(t, fmt.Sprintf("get user by username: %s", username), func(ctx context.Context) (*petstore.Response, error) {
		return api.GetUser(ctx, username)
	})
}
