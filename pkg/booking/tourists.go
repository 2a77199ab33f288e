package booking

import (
	"context"
)

// Tourist is one row of the tourist tables.
type Tourist struct {
	GuestName     string `json:"guest_name"`
	ContactNumber string `json:"contact_number"`
	HomestayName  string `json:"homestay_name"`
	Date          string `json:"date"`
	NumPeople     *int   `json:"num_people"`
	Status        string `json:"status"`
}

// ListTourists returns bookings as tourist rows. Without a homestay the
// list spans every homestay and skips rows with no party size.
func (s *Service) ListTourists(ctx context.Context, f TouristFilter) ([]Tourist, error) {
	rows, err := s.repo.Tourists(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]Tourist, len(rows))
	for i, r := range rows {
		out[i] = Tourist{
			GuestName:     r.GuestName,
			ContactNumber: r.ContactNumber,
			HomestayName:  r.HomestayName,
			Date:          FormatDate(r.Date),
			NumPeople:     r.NumPeople,
			Status:        r.Status,
		}
	}
	return out, nil
}

// OwnerTourists lists every booking of the owner's homestay, newest day first.
func (s *Service) OwnerTourists(ctx context.Context, ownerID uint) ([]Tourist, error) {
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.ListTourists(ctx, TouristFilter{HomestayID: &h.ID, ByDate: true})
}
