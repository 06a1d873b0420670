package petstore

import (
	"slices"

	"github.com/aarondl/opt/omit"
	"github.com/aarondl/opt/omitnull"
)

// Pet statuses used by the remote service. The status field itself is free
// form; these are only the conventional values.
const (
	StatusAvailable = "available"
	StatusPending   = "pending"
	StatusSold      = "sold"
)

// Bodies returned for absent resources.
const (
	MessagePetNotFound   = "Pet not found"
	MessageOrderNotFound = "Order not found"
	MessageUserNotFound  = "User not found"
)

type Category struct {
	ID   omitnull.Val[int64]  `json:"id,omitzero"`
	Name omitnull.Val[string] `json:"name,omitzero"`
}

type Tag struct {
	ID   omitnull.Val[int64]  `json:"id,omitzero"`
	Name omitnull.Val[string] `json:"name,omitzero"`
}

// Pet is the payload stored under /pet. Name and PhotoURLs are required by
// the remote service but nothing here enforces it.
type Pet struct {
	ID        omitnull.Val[int64]    `json:"id,omitzero"`
	Category  omitnull.Val[Category] `json:"category,omitzero"`
	Name      string                 `json:"name"`
	PhotoURLs []string               `json:"photoUrls"`
	Tags      omitnull.Val[[]Tag]    `json:"tags,omitzero"`
	Status    omitnull.Val[string]   `json:"status,omitzero"`
}

// Clone returns a copy of p that shares no slices with it.
func (p Pet) Clone() Pet {
	clone := p
	if p.PhotoURLs != nil {
		clone.PhotoURLs = slices.Clone(p.PhotoURLs)
	}
	if tags, ok := p.Tags.Get(); ok && tags != nil {
		clone.Tags = omitnull.From(slices.Clone(tags))
	}
	return clone
}

type Order struct {
	ID       omitnull.Val[int64]  `json:"id,omitzero"`
	PetID    omitnull.Val[int64]  `json:"petId,omitzero"`
	Quantity omitnull.Val[int64]  `json:"quantity,omitzero"`
	ShipDate omitnull.Val[string] `json:"shipDate,omitzero"`
	Status   omitnull.Val[string] `json:"status,omitzero"`
	Complete omitnull.Val[bool]   `json:"complete,omitzero"`
}

type User struct {
	ID         omitnull.Val[int64]  `json:"id,omitzero"`
	Username   omitnull.Val[string] `json:"username,omitzero"`
	FirstName  omitnull.Val[string] `json:"firstName,omitzero"`
	LastName   omitnull.Val[string] `json:"lastName,omitzero"`
	Email      omitnull.Val[string] `json:"email,omitzero"`
	Password   omitnull.Val[string] `json:"password,omitzero"`
	Phone      omitnull.Val[string] `json:"phone,omitzero"`
	UserStatus omitnull.Val[int64]  `json:"userStatus,omitzero"`
}

// APIResponse is the generic message body used for errors, deletions and
// the user endpoints.
type APIResponse struct {
	Code    omitnull.Val[int64]  `json:"code,omitzero"`
	Type    omitnull.Val[string] `json:"type,omitzero"`
	Message omitnull.Val[string] `json:"message,omitzero"`
}

// Message builds a fully populated APIResponse.
func Message(code int64, typ, message string) APIResponse {
	return APIResponse{
		Code:    omitnull.From(code),
		Type:    omitnull.From(typ),
		Message: omitnull.From(message),
	}
}

// Inventory maps a pet status to a count.
type Inventory map[string]int64

// FormUpdate carries the optional fields of the form-based pet update. Unset
// and empty fields leave the stored value untouched.
type FormUpdate struct {
	Name   omit.Val[string]
	Status omit.Val[string]
}

// NameValue returns the name to apply, if any.
func (f FormUpdate) NameValue() (string, bool) {
	v, ok := f.Name.Get()
	return v, ok && v != ""
}

// StatusValue returns the status to apply, if any.
func (f FormUpdate) StatusValue() (string, bool) {
	v, ok := f.Status.Get()
	return v, ok && v != ""
}
