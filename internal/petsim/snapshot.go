package petsim

import (
	"maps"

	"github.com/pelletier/go-toml/v2"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

// Snapshot is an immutable copy of the simulator state, in insertion order.
type Snapshot struct {
	Pets      []SnapshotPet
	Orders    []SnapshotOrder
	Users     []SnapshotUser
	Inventory petstore.Inventory
	NextID    int64
}

type SnapshotPet struct {
	ID  int64
	Pet petstore.Pet
}

type SnapshotOrder struct {
	ID    int64
	Order petstore.Order
}

type SnapshotUser struct {
	Username string
	User     petstore.User
}

// Snapshot copies the current state.
func (s *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Pets:      make([]SnapshotPet, 0, s.pets.len()),
		Orders:    make([]SnapshotOrder, 0, s.orders.len()),
		Users:     make([]SnapshotUser, 0, s.users.len()),
		Inventory: maps.Clone(s.inventory),
		NextID:    s.nextID,
	}
	for _, id := range s.pets.keys() {
		pet, _ := s.pets.get(id)
		snap.Pets = append(snap.Pets, SnapshotPet{ID: id, Pet: pet.Clone()})
	}
	for _, id := range s.orders.keys() {
		order, _ := s.orders.get(id)
		snap.Orders = append(snap.Orders, SnapshotOrder{ID: id, Order: order})
	}
	for _, username := range s.users.keys() {
		user, _ := s.users.get(username)
		snap.Users = append(snap.Users, SnapshotUser{Username: username, User: user})
	}
	return snap
}

type snapshotTOML struct {
	NextID int64                `toml:"next_id"`
	Pets   []snapshotTOMLPet    `toml:"pet,omitempty"`
	Orders []snapshotTOMLOrder  `toml:"order,omitempty"`
	Users  []snapshotTOMLUser   `toml:"user,omitempty"`
}

type snapshotTOMLPet struct {
	ID     int64  `toml:"id"`
	Name   string `toml:"name"`
	Status string `toml:"status,omitempty"`
}

type snapshotTOMLOrder struct {
	ID     int64  `toml:"id"`
	Status string `toml:"status,omitempty"`
}

type snapshotTOMLUser struct {
	Username string `toml:"username"`
	Email    string `toml:"email,omitempty"`
}

// MarshalTOML renders the keys and the most asserted-on fields of each
// resource, keeping the output stable for golden files.
func (snap Snapshot) MarshalTOML() ([]byte, error) {
	out := snapshotTOML{NextID: snap.NextID}
	for _, p := range snap.Pets {
		out.Pets = append(out.Pets, snapshotTOMLPet{
			ID:     p.ID,
			Name:   p.Pet.Name,
			Status: p.Pet.Status.GetOrZero(),
		})
	}
	for _, o := range snap.Orders {
		out.Orders = append(out.Orders, snapshotTOMLOrder{
			ID:     o.ID,
			Status: o.Order.Status.GetOrZero(),
		})
	}
	for _, u := range snap.Users {
		out.Users = append(out.Users, snapshotTOMLUser{
			Username: u.Username,
			Email:    u.User.Email.GetOrZero(),
		})
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return nil, err
	}
	return data, nil
}
