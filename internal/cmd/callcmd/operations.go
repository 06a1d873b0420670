package callcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aarondl/opt/omit"

	"github.com/artefactual-labs/petstore/internal/petstore"
)

type operation struct {
	args string
	min  int
	max  int
	call func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error)
}

var operations = map[string]operation{
	"createPet": {args: "PET_JSON", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var pet petstore.Pet
		if err := decodeArg(args[0], &pet); err != nil {
			return nil, err
		}
		return api.CreatePet(ctx, pet)
	}},
	"getPet": {args: "PET_ID", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return api.GetPet(ctx, id)
	}},
	"updatePet": {args: "PET_JSON", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var pet petstore.Pet
		if err := decodeArg(args[0], &pet); err != nil {
			return nil, err
		}
		return api.UpdatePet(ctx, pet)
	}},
	"deletePet": {args: "PET_ID", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return api.DeletePet(ctx, id)
	}},
	"findPetsByStatus": {args: "STATUS", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		return api.FindPetsByStatus(ctx, args[0])
	}},
	"updatePetWithForm": {args: "PET_ID [name=NAME] [status=STATUS]", min: 1, max: 3, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		var form petstore.FormUpdate
		for _, arg := range args[1:] {
			key, value, _ := strings.Cut(arg, "=")
			switch key {
			case "name":
				form.Name = omit.From(value)
			case "status":
				form.Status = omit.From(value)
			default:
				return nil, fmt.Errorf("unknown form field %q", key)
			}
		}
		return api.UpdatePetWithForm(ctx, id, form)
	}},
	"getInventory": {call: func(ctx context.Context, api petstore.Backend, _ []string) (*petstore.Response, error) {
		return api.GetInventory(ctx)
	}},
	"placeOrder": {args: "ORDER_JSON", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var order petstore.Order
		if err := decodeArg(args[0], &order); err != nil {
			return nil, err
		}
		return api.PlaceOrder(ctx, order)
	}},
	"getOrder": {args: "ORDER_ID", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return api.GetOrder(ctx, id)
	}},
	"deleteOrder": {args: "ORDER_ID", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return api.DeleteOrder(ctx, id)
	}},
	"createUser": {args: "USER_JSON", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var user petstore.User
		if err := decodeArg(args[0], &user); err != nil {
			return nil, err
		}
		return api.CreateUser(ctx, user)
	}},
	"getUser": {args: "USERNAME", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		return api.GetUser(ctx, args[0])
	}},
	"updateUser": {args: "USERNAME USER_JSON", min: 2, max: 2, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var user petstore.User
		if err := decodeArg(args[1], &user); err != nil {
			return nil, err
		}
		return api.UpdateUser(ctx, args[0], user)
	}},
	"deleteUser": {args: "USERNAME", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		return api.DeleteUser(ctx, args[0])
	}},
	"createUsersWithList": {args: "USERS_JSON", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var users []petstore.User
		if err := decodeArg(args[0], &users); err != nil {
			return nil, err
		}
		return api.CreateUsersWithList(ctx, users)
	}},
	"createUsersWithArray": {args: "USERS_JSON", min: 1, max: 1, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		var users []petstore.User
		if err := decodeArg(args[0], &users); err != nil {
			return nil, err
		}
		return api.CreateUsersWithArray(ctx, users)
	}},
	"login": {args: "USERNAME PASSWORD", min: 2, max: 2, call: func(ctx context.Context, api petstore.Backend, args []string) (*petstore.Response, error) {
		return api.Login(ctx, args[0], args[1])
	}},
	"logout": {call: func(ctx context.Context, api petstore.Backend, _ []string) (*petstore.Response, error) {
		return api.Logout(ctx)
	}},
}

func operationNames() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func operationsHelp() string {
	var b strings.Builder
	b.WriteString("OPERATIONS\n")
	for _, name := range operationNames() {
		fmt.Fprintf(&b, "  %s %s\n", name, operations[name].args)
	}
	return b.String()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func decodeArg(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
