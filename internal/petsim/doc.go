// Package petsim provides an in-memory stand-in for the pet store service.
//
// [Simulator] implements [petstore.Backend] directly, so a test can swap the
// HTTP client for a simulator without touching its assertions. Each simulator
// owns its collections and its identifier counter; construct one per test.
//
// Absent resources are reported as 404 responses carrying the fixed
// not-found body, never as Go errors. The one error the simulator returns is
// [ErrPetIDRequired], when UpdatePet receives a payload without an id.
//
// [Server] exposes a simulator over HTTP for end-to-end tests:
//   - POST, PUT /pet
//   - GET /pet/findByStatus
//   - GET, POST, DELETE /pet/{petId}
//   - GET /store/inventory
//   - POST /store/order, GET and DELETE /store/order/{orderId}
//   - POST /user, /user/createWithList, /user/createWithArray
//   - GET /user/login, /user/logout
//   - GET, PUT, DELETE /user/{username}
//
// ## Integration with testscript
//
// The package provides two testscript commands:
//   - petsim start [-config <file>] [-port <n>] (starts the server, sets PETSIM_URL)
//   - petsim snapshot (prints the current state as TOML)
//
// Seeds are read from a TOML file. See [Config] for the schema. Example:
//
//	[inventory]
//	available = 2
//
//	[[pet]]
//	id = 7
//	name = "Rex"
//	status = "available"
//
//	[[user]]
//	username = "alice"
//	email = "alice@example.com"
package petsim
