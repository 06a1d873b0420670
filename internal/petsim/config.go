package petsim

import (
	"errors"
	"fmt"
	"os"

	"github.com/aarondl/opt/omitnull"
	"github.com/pelletier/go-toml/v2"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

const DefaultListen = "127.0.0.1:8080"

type Config struct {
	Server    ServerConfig     `toml:"server"`
	Inventory map[string]int64 `toml:"inventory"`
	Pets      []PetConfig      `toml:"pet"`
	Orders    []OrderConfig    `toml:"order"`
	Users     []UserConfig     `toml:"user"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

type PetConfig struct {
	ID        int64    `toml:"id"`
	Name      string   `toml:"name"`
	Status    string   `toml:"status"`
	Category  string   `toml:"category"`
	PhotoURLs []string `toml:"photo_urls"`
	Tags      []string `toml:"tags"`
}

type OrderConfig struct {
	ID       int64  `toml:"id"`
	PetID    int64  `toml:"pet_id"`
	Quantity int64  `toml:"quantity"`
	ShipDate string `toml:"ship_date"`
	Status   string `toml:"status"`
	Complete bool   `toml:"complete"`
}

type UserConfig struct {
	ID        int64  `toml:"id"`
	Username  string `toml:"username"`
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
	Email     string `toml:"email"`
	Password  string `toml:"password"`
	Phone     string `toml:"phone"`
}

// DefaultConfig is used when no configuration file is given.
func DefaultConfig() *Config {
	return &Config{
		Server:    ServerConfig{Listen: DefaultListen},
		Inventory: DefaultInventory(),
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg, err := decodeConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Config{Server: ServerConfig{Listen: DefaultListen}}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Listen == "" {
		return errors.New("server.listen is required")
	}
	return c.validateSeeds()
}

func (c *Config) validateSeeds() error {
	seenPets := make(map[int64]struct{}, len(c.Pets))
	for _, pet := range c.Pets {
		if pet.ID == 0 {
			return errors.New("pet.id is required")
		}
		if _, ok := seenPets[pet.ID]; ok {
			return fmt.Errorf("duplicate pet id %d", pet.ID)
		}
		seenPets[pet.ID] = struct{}{}
	}

	seenOrders := make(map[int64]struct{}, len(c.Orders))
	for _, order := range c.Orders {
		if order.ID == 0 {
			return errors.New("order.id is required")
		}
		if _, ok := seenOrders[order.ID]; ok {
			return fmt.Errorf("duplicate order id %d", order.ID)
		}
		seenOrders[order.ID] = struct{}{}
	}

	seenUsers := make(map[string]struct{}, len(c.Users))
	for _, user := range c.Users {
		if user.Username == "" {
			return errors.New("user.username is required")
		}
		if _, ok := seenUsers[user.Username]; ok {
			return fmt.Errorf("duplicate username %q", user.Username)
		}
		seenUsers[user.Username] = struct{}{}
	}
	return nil
}

// NewFromConfig builds a simulator pre-loaded with the seeds in cfg. Seeding
// does not consume ids from the counter.
func NewFromConfig(cfg *Config, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if len(cfg.Inventory) > 0 {
		opts = append([]Option{WithInventory(cfg.Inventory)}, opts...)
	}
	s := New(opts...)
	if err := s.Seed(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed loads the pets, orders and users in cfg, overwriting entries that share
// a key. Seeding does not consume ids from the counter.
func (s *Simulator) Seed(cfg *Config) error {
	if err := cfg.validateSeeds(); err != nil {
		return err
	}
	for _, p := range cfg.Pets {
		s.pets.put(p.ID, p.pet())
	}
	for _, o := range cfg.Orders {
		s.orders.put(o.ID, o.order())
	}
	for _, u := range cfg.Users {
		s.users.put(u.Username, u.user())
	}
	return nil
}

func optString(v string) omitnull.Val[string] {
	if v == "" {
		return omitnull.Val[string]{}
	}
	return omitnull.From(v)
}

func (p PetConfig) pet() petstore.Pet {
	pet := petstore.Pet{
		ID:        omitnull.From(p.ID),
		Name:      p.Name,
		PhotoURLs: append([]string{}, p.PhotoURLs...),
		Status:    optString(p.Status),
	}
	if p.Category != "" {
		pet.Category = omitnull.From(petstore.Category{Name: omitnull.From(p.Category)})
	}
	if len(p.Tags) > 0 {
		tags := make([]petstore.Tag, len(p.Tags))
		for i, name := range p.Tags {
			tags[i] = petstore.Tag{Name: omitnull.From(name)}
		}
		pet.Tags = omitnull.From(tags)
	}
	return pet
}

func (o OrderConfig) order() petstore.Order {
	order := petstore.Order{
		ID:       omitnull.From(o.ID),
		ShipDate: optString(o.ShipDate),
		Status:   optString(o.Status),
		Complete: omitnull.From(o.Complete),
	}
	if o.PetID != 0 {
		order.PetID = omitnull.From(o.PetID)
	}
	if o.Quantity != 0 {
		order.Quantity = omitnull.From(o.Quantity)
	}
	return order
}

func (u UserConfig) user() petstore.User {
	user := petstore.User{
		Username:  omitnull.From(u.Username),
		FirstName: optString(u.FirstName),
		LastName:  optString(u.LastName),
		Email:     optString(u.Email),
		Password:  optString(u.Password),
		Phone:     optString(u.Phone),
	}
	if u.ID != 0 {
		user.ID = omitnull.From(u.ID)
	}
	return user
}
