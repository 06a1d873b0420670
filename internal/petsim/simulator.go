package petsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strconv"

	"github.com/aarondl/opt/omitnull"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

// ErrPetIDRequired is returned by UpdatePet when the payload carries no id.
// It signals a broken caller contract, not a simulated HTTP failure.
var ErrPetIDRequired = errors.New("update pet: payload has no id")

// Simulator is an in-memory stand-in for the pet store service. Every
// operation answers with a Response; absent resources yield a 404 body
// instead of an error.
//
// A Simulator is meant to be owned by a single test and is not safe for
// concurrent use. Server wraps it with a mutex when it is shared.
type Simulator struct {
	pets      *collection[int64, petstore.Pet]
	orders    *collection[int64, petstore.Order]
	users     *collection[string, petstore.User]
	inventory petstore.Inventory

	// nextID is shared by every create operation and only ever grows.
	nextID int64

	tokens TokenSource
	logger *slog.Logger
}

var _ petstore.Backend = (*Simulator)(nil)

type Option func(*Simulator)

// WithTokenSource replaces the random source used for login session tokens.
func WithTokenSource(src TokenSource) Option {
	return func(s *Simulator) {
		s.tokens = src
	}
}

// WithInventory replaces the fixed inventory summary.
func WithInventory(inv petstore.Inventory) Option {
	return func(s *Simulator) {
		s.inventory = maps.Clone(inv)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// DefaultInventory is the summary reported by GetInventory unless replaced.
func DefaultInventory() petstore.Inventory {
	return petstore.Inventory{
		petstore.StatusAvailable: 10,
		petstore.StatusPending:   5,
		petstore.StatusSold:      3,
	}
}

// New returns an empty simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		pets:      newCollection[int64, petstore.Pet](),
		orders:    newCollection[int64, petstore.Order](),
		users:     newCollection[string, petstore.User](),
		inventory: DefaultInventory(),
		nextID:    1,
		tokens:    defaultTokenSource(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextID reports the value the next create operation will consume.
func (s *Simulator) NextID() int64 {
	return s.nextID
}

func (s *Simulator) takeID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Simulator) respond(op string, code int, body any) (*petstore.Response, error) {
	s.logger.Debug("Simulated call.", "operation", op, "status", code)
	return petstore.NewResponse(code, body)
}

func notFound(message string) petstore.APIResponse {
	return petstore.Message(1, "error", message)
}

func unknown(message string) petstore.APIResponse {
	return petstore.Message(http.StatusOK, "unknown", message)
}

// userMessage is the body of CreateUser and UpdateUser: the payload id as a
// string, or an empty string when the payload has none.
func userMessage(user petstore.User) petstore.APIResponse {
	msg := ""
	if id, ok := user.ID.Get(); ok {
		msg = strconv.FormatInt(id, 10)
	}
	return unknown(msg)
}

// CreatePet stores the payload under its own id, or under the next counter
// value when it has none. The counter advances either way.
func (s *Simulator) CreatePet(_ context.Context, pet petstore.Pet) (*petstore.Response, error) {
	next := s.takeID()
	id, ok := pet.ID.Get()
	if !ok {
		id = next
	}
	s.pets.put(id, pet.Clone())
	return s.respond("createPet", http.StatusOK, pet)
}

func (s *Simulator) GetPet(_ context.Context, id int64) (*petstore.Response, error) {
	pet, ok := s.pets.get(id)
	if !ok {
		return s.respond("getPet", http.StatusNotFound, notFound(petstore.MessagePetNotFound))
	}
	return s.respond("getPet", http.StatusOK, pet)
}

// UpdatePet overwrites an existing pet. The payload must carry an id;
// without one ErrPetIDRequired is returned and nothing changes.
func (s *Simulator) UpdatePet(_ context.Context, pet petstore.Pet) (*petstore.Response, error) {
	id, ok := pet.ID.Get()
	if !ok {
		return nil, ErrPetIDRequired
	}
	if !s.pets.has(id) {
		return s.respond("updatePet", http.StatusNotFound, notFound(petstore.MessagePetNotFound))
	}
	s.pets.put(id, pet.Clone())
	return s.respond("updatePet", http.StatusOK, pet)
}

func (s *Simulator) DeletePet(_ context.Context, id int64) (*petstore.Response, error) {
	if !s.pets.remove(id) {
		return s.respond("deletePet", http.StatusNotFound, notFound(petstore.MessagePetNotFound))
	}
	return s.respond("deletePet", http.StatusOK, unknown(strconv.FormatInt(id, 10)))
}

// FindPetsByStatus lists, in insertion order, every pet whose status equals
// status exactly.
func (s *Simulator) FindPetsByStatus(_ context.Context, status string) (*petstore.Response, error) {
	found := []petstore.Pet{}
	for _, id := range s.pets.keys() {
		pet, _ := s.pets.get(id)
		if st, ok := pet.Status.Get(); ok && st == status {
			found = append(found, pet)
		}
	}
	return s.respond("findPetsByStatus", http.StatusOK, found)
}

func (s *Simulator) UpdatePetWithForm(_ context.Context, id int64, form petstore.FormUpdate) (*petstore.Response, error) {
	pet, ok := s.pets.get(id)
	if !ok {
		return s.respond("updatePetWithForm", http.StatusNotFound, notFound(petstore.MessagePetNotFound))
	}
	if name, ok := form.NameValue(); ok {
		pet.Name = name
	}
	if status, ok := form.StatusValue(); ok {
		pet.Status = omitnull.From(status)
	}
	s.pets.put(id, pet)
	return s.respond("updatePetWithForm", http.StatusOK, petstore.APIResponse{
		Code:    omitnull.From(int64(http.StatusOK)),
		Message: omitnull.From("success"),
	})
}

// GetInventory reports the fixed summary. It is not derived from the pets
// currently stored.
func (s *Simulator) GetInventory(_ context.Context) (*petstore.Response, error) {
	return s.respond("getInventory", http.StatusOK, s.inventory)
}

func (s *Simulator) PlaceOrder(_ context.Context, order petstore.Order) (*petstore.Response, error) {
	next := s.takeID()
	id, ok := order.ID.Get()
	if !ok {
		id = next
	}
	s.orders.put(id, order)
	return s.respond("placeOrder", http.StatusOK, order)
}

func (s *Simulator) GetOrder(_ context.Context, id int64) (*petstore.Response, error) {
	order, ok := s.orders.get(id)
	if !ok {
		return s.respond("getOrder", http.StatusNotFound, notFound(petstore.MessageOrderNotFound))
	}
	return s.respond("getOrder", http.StatusOK, order)
}

func (s *Simulator) DeleteOrder(_ context.Context, id int64) (*petstore.Response, error) {
	if !s.orders.remove(id) {
		return s.respond("deleteOrder", http.StatusNotFound, notFound(petstore.MessageOrderNotFound))
	}
	return s.respond("deleteOrder", http.StatusOK, unknown(strconv.FormatInt(id, 10)))
}

// CreateUser stores the payload under its username, or under "user<n>"
// when the payload has none. The counter advances either way.
func (s *Simulator) CreateUser(_ context.Context, user petstore.User) (*petstore.Response, error) {
	next := s.takeID()
	username, ok := user.Username.Get()
	if !ok {
		username = fmt.Sprintf("user%d", next)
	}
	s.users.put(username, user)
	return s.respond("createUser", http.StatusOK, userMessage(user))
}

func (s *Simulator) GetUser(_ context.Context, username string) (*petstore.Response, error) {
	user, ok := s.users.get(username)
	if !ok {
		return s.respond("getUser", http.StatusNotFound, notFound(petstore.MessageUserNotFound))
	}
	return s.respond("getUser", http.StatusOK, user)
}

func (s *Simulator) UpdateUser(_ context.Context, username string, user petstore.User) (*petstore.Response, error) {
	if !s.users.has(username) {
		return s.respond("updateUser", http.StatusNotFound, notFound(petstore.MessageUserNotFound))
	}
	s.users.put(username, user)
	return s.respond("updateUser", http.StatusOK, userMessage(user))
}

func (s *Simulator) DeleteUser(_ context.Context, username string) (*petstore.Response, error) {
	if !s.users.remove(username) {
		return s.respond("deleteUser", http.StatusNotFound, notFound(petstore.MessageUserNotFound))
	}
	return s.respond("deleteUser", http.StatusOK, unknown(username))
}

func (s *Simulator) CreateUsersWithList(ctx context.Context, users []petstore.User) (*petstore.Response, error) {
	return s.createUsers("createUsersWithList", users)
}

func (s *Simulator) CreateUsersWithArray(ctx context.Context, users []petstore.User) (*petstore.Response, error) {
	return s.createUsers("createUsersWithArray", users)
}

// createUsers stores every entry that has a non-empty username and skips the
// rest. It does not consume ids.
func (s *Simulator) createUsers(op string, users []petstore.User) (*petstore.Response, error) {
	for _, user := range users {
		if username, ok := user.Username.Get(); ok && username != "" {
			s.users.put(username, user)
		}
	}
	return s.respond(op, http.StatusOK, unknown("ok"))
}

// Login never checks credentials; it always hands out a fresh session token.
func (s *Simulator) Login(_ context.Context, _, _ string) (*petstore.Response, error) {
	token := s.tokens.IntBetween(minSessionToken, maxSessionToken)
	return s.respond("login", http.StatusOK, unknown(fmt.Sprintf("logged in session: %d", token)))
}

func (s *Simulator) Logout(_ context.Context) (*petstore.Response, error) {
	return s.respond("logout", http.StatusOK, unknown("ok"))
}
