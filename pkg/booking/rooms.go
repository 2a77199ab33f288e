package booking

import (
	"context"
	"strings"

	"digitrack/pkg/models"
)

type RoomInput struct {
	RoomNumber string
	Capacity   int
	Status     models.RoomStatus
}

// RoomUpdate changes only the fields that are set.
type RoomUpdate struct {
	RoomNumber *string
	Capacity   *int
	Status     *models.RoomStatus
}

func (s *Service) AddRoom(ctx context.Context, ownerID uint, in RoomInput) (RoomView, error) {
	number := strings.TrimSpace(in.RoomNumber)
	if number == "" || in.Capacity == 0 {
		return RoomView{}, ErrMissingFields
	}
	if in.Capacity < 0 {
		return RoomView{}, ErrInvalidCapacity
	}
	status := in.Status
	if status == "" {
		status = models.RoomAvailable
	}
	if !status.Valid() {
		return RoomView{}, ErrInvalidStatus
	}

	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return RoomView{}, err
	}
	room := &models.Room{
		HomestayID: h.ID,
		RoomNumber: number,
		Capacity:   in.Capacity,
		Status:     status,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return RoomView{}, err
	}
	s.log.Info().Uint("homestay_id", h.ID).Str("room_number", number).Msg("room added")
	return roomViewOf(*room), nil
}

func (s *Service) ListRooms(ctx context.Context, ownerID uint) ([]RoomView, error) {
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.repo.RoomsByHomestay(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	views := make([]RoomView, len(rooms))
	for i, r := range rooms {
		views[i] = roomViewOf(r)
	}
	return views, nil
}

// ownedRoom loads a room and hides rooms of other homestays as not found.
func (s *Service) ownedRoom(ctx context.Context, ownerID, roomID uint) (*models.Room, error) {
	if roomID == 0 {
		return nil, ErrMissingFields
	}
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	room, err := s.repo.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HomestayID != h.ID {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, ownerID, roomID uint, u RoomUpdate) (RoomView, error) {
	room, err := s.ownedRoom(ctx, ownerID, roomID)
	if err != nil {
		return RoomView{}, err
	}
	if u.RoomNumber != nil {
		number := strings.TrimSpace(*u.RoomNumber)
		if number == "" {
			return RoomView{}, ErrMissingFields
		}
		room.RoomNumber = number
	}
	if u.Capacity != nil {
		if *u.Capacity <= 0 {
			return RoomView{}, ErrInvalidCapacity
		}
		room.Capacity = *u.Capacity
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return RoomView{}, ErrInvalidStatus
		}
		room.Status = *u.Status
	}
	if err := s.repo.SaveRoom(ctx, room); err != nil {
		return RoomView{}, err
	}
	return roomViewOf(*room), nil
}

// DeleteRoom removes the room and every booking attached to it.
func (s *Service) DeleteRoom(ctx context.Context, ownerID, roomID uint) error {
	room, err := s.ownedRoom(ctx, ownerID, roomID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRoom(ctx, room.ID); err != nil {
		return err
	}
	s.log.Info().Uint("homestay_id", room.HomestayID).Uint("room_id", room.ID).Msg("room deleted")
	return nil
}
