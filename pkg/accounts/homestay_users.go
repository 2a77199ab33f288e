package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"digitrack/pkg/auth"
	"digitrack/pkg/models"

	"gorm.io/gorm"
)

type NewHomestayUser struct {
	ActorID      uint
	Username     string
	Password     string
	HomestayName string
	OwnerName    string
	Address      string
	Status       string
}

type HomestayUserEdit struct {
	ActorID      uint
	Username     string
	HomestayName string
	OwnerName    string
	Address      string
	Status       string
}

// HomestayUser is one row of the MTO account table.
type HomestayUser struct {
	UserID       uint   `json:"user_id"`
	HomestayID   uint   `json:"homestay_id"`
	HomestayName string `json:"homestayName"`
	OwnerName    string `json:"ownerName"`
	Address      string `json:"address"`
	Username     string `json:"username"`
	Status       string `json:"status"`
	TotalGuests  int    `json:"totalGuests"`
}

func homestayUserOf(h *models.Homestay) HomestayUser {
	return HomestayUser{
		UserID:       h.Owner.ID,
		HomestayID:   h.ID,
		HomestayName: h.Name,
		OwnerName:    h.Owner.Name,
		Address:      h.Address,
		Username:     h.Owner.Username,
		Status:       statusOf(&h.Owner),
	}
}

// AddHomestayUser creates an owner account together with its homestay.
func (s *Service) AddHomestayUser(ctx context.Context, in NewHomestayUser) (HomestayUser, error) {
	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	homestayName := strings.TrimSpace(in.HomestayName)
	ownerName := strings.TrimSpace(in.OwnerName)
	address := strings.TrimSpace(in.Address)
	if username == "" || password == "" || homestayName == "" || ownerName == "" || address == "" {
		return HomestayUser{}, ErrMissingFields
	}
	active, err := parseStatus(in.Status)
	if err != nil {
		return HomestayUser{}, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return HomestayUser{}, err
	}
	if _, err := s.ByUsername(ctx, username); err == nil {
		return HomestayUser{}, s.usernameTaken(ctx, username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return HomestayUser{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return HomestayUser{}, fmt.Errorf("hash password: %w", err)
	}

	h := &models.Homestay{Name: homestayName, Address: address}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner := models.Account{Username: username, PasswordHash: hash, Name: ownerName, Role: models.RoleOwner, IsActive: true}
		if err := tx.Create(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("create account: %w", err)
		}
		if !active {
			if err := tx.Model(&owner).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("suspend account: %w", err)
			}
		}
		h.OwnerID = owner.ID
		if err := tx.Omit("Owner").Create(h).Error; err != nil {
			return fmt.Errorf("create homestay: %w", err)
		}
		h.Owner = owner
		return recordEvent(tx, in.ActorID, &owner, models.EventAdded, "Added homestay "+homestayName+".")
	})
	if errors.Is(err, ErrUsernameTaken) {
		return HomestayUser{}, s.usernameTaken(ctx, username)
	}
	if err != nil {
		return HomestayUser{}, err
	}

	s.log.Info().Str("username", username).Uint("homestay_id", h.ID).Msg("homestay account created")
	return homestayUserOf(h), nil
}

// usernameTaken builds the conflict error with the smallest free
// "<username><n>" suggestion.
func (s *Service) usernameTaken(ctx context.Context, username string) error {
	var taken []string
	err := s.db.WithContext(ctx).Model(&models.Account{}).Where("username LIKE ?", username+"%").Pluck("username", &taken).Error
	if err != nil {
		return fmt.Errorf("suggest username: %w", err)
	}
	used := make(map[string]bool, len(taken))
	for _, u := range taken {
		used[u] = true
	}
	n := 1
	for used[username+strconv.Itoa(n)] {
		n++
	}
	return &UsernameTakenError{Suggested: username + strconv.Itoa(n)}
}

// EditHomestayUser updates an owner's display name, status and homestay.
func (s *Service) EditHomestayUser(ctx context.Context, in HomestayUserEdit) (HomestayUser, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return HomestayUser{}, ErrMissingFields
	}
	active, err := parseStatus(in.Status)
	if err != nil {
		return HomestayUser{}, err
	}

	var h models.Homestay
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.Account
		err := tx.Where("username = ?", username).First(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		err = tx.Where("owner_id = ?", owner.ID).First(&h).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHomestayNotFound
		}
		if err != nil {
			return fmt.Errorf("load homestay: %w", err)
		}

		var changed []string
		if name := strings.TrimSpace(in.OwnerName); name != "" && name != owner.Name {
			owner.Name = name
			changed = append(changed, "owner name")
		}
		if active != owner.IsActive {
			owner.IsActive = active
			changed = append(changed, "status")
		}
		if err := tx.Model(&owner).Select("name", "is_active").Updates(&owner).Error; err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if name := strings.TrimSpace(in.HomestayName); name != "" && name != h.Name {
			h.Name = name
			changed = append(changed, "homestay name")
		}
		if addr := strings.TrimSpace(in.Address); addr != "" && addr != h.Address {
			h.Address = addr
			changed = append(changed, "address")
		}
		if err := tx.Model(&h).Select("name", "address").Updates(&h).Error; err != nil {
			return fmt.Errorf("update homestay: %w", err)
		}
		h.Owner = owner
		return recordEvent(tx, in.ActorID, &owner, models.EventChanged, changeMessage(changed))
	})
	if err != nil {
		return HomestayUser{}, err
	}

	s.log.Info().Str("username", username).Bool("active", active).Msg("homestay account updated")
	return homestayUserOf(&h), nil
}

// ListHomestayUsers lists owner accounts with their guest totals. A non-empty
// query keeps rows whose homestay, owner, address or username contains it.
func (s *Service) ListHomestayUsers(ctx context.Context, query string) ([]HomestayUser, error) {
	q := s.db.WithContext(ctx).Preload("Owner").
		Joins("JOIN accounts ON accounts.id = homestays.owner_id")
	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(homestays.name) LIKE ? OR LOWER(homestays.address) LIKE ? OR LOWER(accounts.name) LIKE ? OR LOWER(accounts.username) LIKE ?",
			like, like, like, like)
	}
	var homestays []models.Homestay
	if err := q.Order("homestays.name").Find(&homestays).Error; err != nil {
		return nil, fmt.Errorf("list homestays: %w", err)
	}

	totals, err := s.totals.HomestayGuestTotals(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]HomestayUser, len(homestays))
	for i := range homestays {
		users[i] = homestayUserOf(&homestays[i])
		users[i].TotalGuests = totals[homestays[i].ID]
	}
	return users, nil
}
