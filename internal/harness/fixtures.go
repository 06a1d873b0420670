package harness

import (
	"time"

	"github.com/aarondl/opt/omitnull"
	"github.com/jaswdr/faker/v2"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

// Fixtures produces realistic payloads for scenarios.
type Fixtures struct {
	fake faker.Faker
}

func NewFixtures() *Fixtures {
	return &Fixtures{fake: faker.New()}
}

func (f *Fixtures) Pet(id int64, status string) petstore.Pet {
	pet := petstore.Pet{
		Name:      f.fake.Pet().Name(),
		PhotoURLs: []string{f.fake.Internet().URL()},
		Tags: omitnull.From([]petstore.Tag{
			{ID: omitnull.From(int64(1)), Name: omitnull.From(f.fake.Lorem().Word())},
		}),
	}
	if id != 0 {
		pet.ID = omitnull.From(id)
	}
	if status != "" {
		pet.Status = omitnull.From(status)
	}
	return pet
}

func (f *Fixtures) User(id int64, username string) petstore.User {
	user := petstore.User{
		FirstName: omitnull.From(f.fake.Person().FirstName()),
		LastName:  omitnull.From(f.fake.Person().LastName()),
		Email:     omitnull.From(f.fake.Internet().Email()),
		Password:  omitnull.From(f.fake.Internet().Password()),
		Phone:     omitnull.From(f.fake.Phone().Number()),
	}
	if id != 0 {
		user.ID = omitnull.From(id)
	}
	if username != "" {
		user.Username = omitnull.From(username)
	}
	return user
}

func (f *Fixtures) Order(id, petID int64) petstore.Order {
	return petstore.Order{
		ID:       omitnull.From(id),
		PetID:    omitnull.From(petID),
		Quantity: omitnull.From(int64(f.fake.IntBetween(1, 5))),
		ShipDate: omitnull.From(time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02T15:04:05.000Z")),
		Status:   omitnull.From("placed"),
		Complete: omitnull.From(true),
	}
}
