package testutil

import (
	"fmt"
	"time"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
)

// EventRequestBuilder builds CreateEventRequest payloads for tests
// with sensible defaults so each test only states what it cares about.
type EventRequestBuilder struct {
	req model.CreateEventRequest
}

// NewEventRequest returns a builder preloaded with a valid free event.
func NewEventRequest() *EventRequestBuilder {
	start := TestTime().Add(24 * time.Hour)
	return &EventRequestBuilder{
		req: model.CreateEventRequest{
			Title:       "Fête de la musique",
			Description: "Concert gratuit sur la place du village",
			DateStart:   start,
			DateEnd:     start.Add(3 * time.Hour),
			Location:    "Place de la Mairie",
			Address:     "1 place de la Mairie",
			CategoryID:  1,
			IsFree:      true,
			CreatorID:   "user-test",
			CommuneID:   1,
		},
	}
}

// WithTitle sets the event title.
func (b *EventRequestBuilder) WithTitle(title string) *EventRequestBuilder {
	b.req.Title = title
	return b
}

// WithDescription sets the event description.
func (b *EventRequestBuilder) WithDescription(desc string) *EventRequestBuilder {
	b.req.Description = desc
	return b
}

// WithDates sets the start and end times.
func (b *EventRequestBuilder) WithDates(start, end time.Time) *EventRequestBuilder {
	b.req.DateStart = start
	b.req.DateEnd = end
	return b
}

// WithCategory sets the category reference.
func (b *EventRequestBuilder) WithCategory(id int64) *EventRequestBuilder {
	b.req.CategoryID = id
	return b
}

// WithCommune sets the owning commune.
func (b *EventRequestBuilder) WithCommune(id int64) *EventRequestBuilder {
	b.req.CommuneID = id
	return b
}

// WithCreator sets the creating user.
func (b *EventRequestBuilder) WithCreator(userID string) *EventRequestBuilder {
	b.req.CreatorID = userID
	return b
}

// WithPrice marks the event as paid at the given price.
func (b *EventRequestBuilder) WithPrice(price float64) *EventRequestBuilder {
	b.req.IsFree = false
	b.req.Price = &price
	return b
}

// WithLocation sets the venue name and address.
func (b *EventRequestBuilder) WithLocation(location, address string) *EventRequestBuilder {
	b.req.Location = location
	b.req.Address = address
	return b
}

// WithContact sets the public contact fields.
func (b *EventRequestBuilder) WithContact(name, email, phone string) *EventRequestBuilder {
	b.req.ContactName = &name
	b.req.ContactEmail = &email
	b.req.ContactPhone = &phone
	return b
}

// Build returns a copy of the assembled request.
func (b *EventRequestBuilder) Build() *model.CreateEventRequest {
	req := b.req
	return &req
}

// CommuneRequest returns a valid commune creation payload. The suffix keeps
// names unique across tests sharing one database.
func CommuneRequest(suffix string, population int) *model.CreateCommuneRequest {
	return &model.CreateCommuneRequest{
		Name:       fmt.Sprintf("Saint-Test-%s", suffix),
		Population: population,
	}
}

// CategoryRequest returns a valid category creation payload.
func CategoryRequest(name string) *model.CreateCategoryRequest {
	return &model.CreateCategoryRequest{
		Name:        name,
		Description: StringPtr("Catégorie de test"),
	}
}

// ProfileRequest returns a valid profile creation payload scoped to a commune.
func ProfileRequest(userID string, communeID int64) *model.CreateProfileRequest {
	return &model.CreateProfileRequest{
		UserID:    userID,
		Email:     fmt.Sprintf("%s@example.org", userID),
		Role:      domainauth.RoleUser,
		CommuneID: &communeID,
	}
}
