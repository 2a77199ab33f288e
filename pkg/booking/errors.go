package booking

import "digitrack/pkg/apperrors"

var (
	ErrHomestayNotFound    = apperrors.NotFound("Homestay not found.")
	ErrRoomNotFound        = apperrors.NotFound("Room not found.")
	ErrHomestaySuspended   = apperrors.Forbidden("Registration is not allowed. This homestay is currently suspended.")
	ErrDuplicateBooking    = apperrors.Conflict("A booking for this homestay and date already exists. Please choose another date.")
	ErrRoomAlreadyReserved = apperrors.Conflict("Room is already reserved for this date.")
	ErrRoomNumberTaken     = apperrors.Conflict("Room number already exists for this homestay.")
	ErrInvalidContact      = apperrors.Validation("Invalid contact number. Letters are not allowed.")
	ErrInvalidDate         = apperrors.Validation("Invalid date.")
	ErrInvalidDateRange    = apperrors.Validation("Departure date must not be before arrival date.")
	ErrRangeTooLong        = apperrors.Validation("Date range is too long.")
	ErrInvalidStatus       = apperrors.Validation("Invalid status.")
	ErrInvalidPartySize    = apperrors.Validation("Number of guests must be a positive number.")
	ErrInvalidCapacity     = apperrors.Validation("Capacity must be a positive number.")
	ErrMissingFields       = apperrors.Validation("Missing required fields.")
	ErrInvalidYearRange    = apperrors.Validation("Invalid year range.")
	ErrInvalidSource       = apperrors.Validation("Invalid source filter.")
)
