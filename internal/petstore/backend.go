package petstore

import "context"

// Backend is the operation surface of the pet store service. The HTTP Client
// talks to a live service; the simulator in internal/petsim answers from
// memory. Absent resources are reported through the Response status code,
// never through the error, which is reserved for transport failures and
// broken caller preconditions.
type Backend interface {
	CreatePet(ctx context.Context, pet Pet) (*Response, error)
	GetPet(ctx context.Context, id int64) (*Response, error)
	UpdatePet(ctx context.Context, pet Pet) (*Response, error)
	DeletePet(ctx context.Context, id int64) (*Response, error)
	FindPetsByStatus(ctx context.Context, status string) (*Response, error)
	UpdatePetWithForm(ctx context.Context, id int64, form FormUpdate) (*Response, error)

	GetInventory(ctx context.Context) (*Response, error)
	PlaceOrder(ctx context.Context, order Order) (*Response, error)
	GetOrder(ctx context.Context, id int64) (*Response, error)
	DeleteOrder(ctx context.Context, id int64) (*Response, error)

	CreateUser(ctx context.Context, user User) (*Response, error)
	GetUser(ctx context.Context, username string) (*Response, error)
	UpdateUser(ctx context.Context, username string, user User) (*Response, error)
	DeleteUser(ctx context.Context, username string) (*Response, error)
	CreateUsersWithList(ctx context.Context, users []User) (*Response, error)
	CreateUsersWithArray(ctx context.Context, users []User) (*Response, error)
	Login(ctx context.Context, username, password string) (*Response, error)
	Logout(ctx context.Context) (*Response, error)
}
