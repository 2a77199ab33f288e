package accounts

import (
	"context"
	"errors"
	"testing"

	"digitrack/pkg/apperrors"
	"digitrack/pkg/auth"
	"digitrack/pkg/database"
	"digitrack/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixedTotals map[uint]int

func (f fixedTotals) HomestayGuestTotals(context.Context) (map[uint]int, error) {
	return f, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupService(t *testing.T, totals fixedTotals) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, totals, zerolog.Nop()), db
}

const goodPassword = "Bolinao-Beach-2025"

func addOwner(t *testing.T, svc *Service, username, homestay string) HomestayUser {
	t.Helper()
	u, err := svc.AddHomestayUser(context.Background(), NewHomestayUser{
		Username:     username,
		Password:     goodPassword,
		HomestayName: homestay,
		OwnerName:    "Owner of " + homestay,
		Address:      "Patar, Bolinao",
	})
	require.NoError(t, err)
	return u
}

func TestAddHomestayUser(t *testing.T) {
	svc, db := setupService(t, fixedTotals{})

	u := addOwner(t, svc, "seaside", "Seaside Homestay")
	assert.Equal(t, "seaside", u.Username)
	assert.Equal(t, StatusActive, u.Status)
	assert.NotZero(t, u.HomestayID)

	var stored models.Account
	require.NoError(t, db.Where("username = ?", "seaside").First(&stored).Error)
	assert.Equal(t, models.RoleOwner, stored.Role)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, goodPassword))

	var h models.Homestay
	require.NoError(t, db.First(&h, u.HomestayID).Error)
	assert.Equal(t, stored.ID, h.OwnerID)
	assert.Equal(t, 4, h.MaxGuests)
}

func TestAddHomestayUserSuggestsUsername(t *testing.T) {
	svc, _ := setupService(t, fixedTotals{})
	addOwner(t, svc, "seaside", "Seaside A")
	addOwner(t, svc, "seaside1", "Seaside B")

	_, err := svc.AddHomestayUser(context.Background(), NewHomestayUser{
		Username: "seaside", Password: goodPassword, HomestayName: "Seaside C", OwnerName: "C", Address: "X",
	})
	var taken *UsernameTakenError
	require.True(t, errors.As(err, &taken))
	assert.Equal(t, "seaside2", taken.Suggested)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAddHomestayUserValidation(t *testing.T) {
	svc, db := setupService(t, fixedTotals{})
	ctx := context.Background()

	_, err := svc.AddHomestayUser(ctx, NewHomestayUser{Username: "x", Password: goodPassword})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.AddHomestayUser(ctx, NewHomestayUser{Username: "x", Password: "aaaaaaaaaa", HomestayName: "H", OwnerName: "O", Address: "A"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.AddHomestayUser(ctx, NewHomestayUser{Username: "x", Password: goodPassword, HomestayName: "H", OwnerName: "O", Address: "A", Status: "Banned"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	var n int64
	require.NoError(t, db.Model(&models.Account{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := setupService(t, fixedTotals{})
	ctx := context.Background()
	addOwner(t, svc, "seaside", "Seaside Homestay")

	a, err := svc.Authenticate(ctx, "seaside", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, "seaside", a.Username)

	_, err = svc.Authenticate(ctx, "seaside", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", goodPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.EditHomestayUser(ctx, HomestayUserEdit{Username: "seaside", Status: StatusInactive})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "seaside", goodPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEditHomestayUser(t *testing.T) {
	svc, db := setupService(t, fixedTotals{})
	ctx := context.Background()
	u := addOwner(t, svc, "seaside", "Seaside Homestay")

	edited, err := svc.EditHomestayUser(ctx, HomestayUserEdit{
		Username: "seaside", HomestayName: "Seaside Inn", OwnerName: "Lita", Address: "Germinal", Status: StatusInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Seaside Inn", edited.HomestayName)
	assert.Equal(t, "Lita", edited.OwnerName)
	assert.Equal(t, StatusInactive, edited.Status)

	var h models.Homestay
	require.NoError(t, db.Preload("Owner").First(&h, u.HomestayID).Error)
	assert.Equal(t, "Germinal", h.Address)
	assert.False(t, h.Owner.IsActive)

	_, err = svc.EditHomestayUser(ctx, HomestayUserEdit{Username: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListHomestayUsers(t *testing.T) {
	svc, _ := setupService(t, nil)
	a := addOwner(t, svc, "seaside", "Seaside Homestay")
	b := addOwner(t, svc, "hilltop", "Hilltop Rooms")
	svc.totals = fixedTotals{a.HomestayID: 12}

	users, err := svc.ListHomestayUsers(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Hilltop Rooms", users[0].HomestayName)
	assert.Equal(t, 0, users[0].TotalGuests)
	assert.Equal(t, 12, users[1].TotalGuests)

	found, err := svc.ListHomestayUsers(context.Background(), "HILL")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.Username, found[0].Username)
}

func TestChangePassword(t *testing.T) {
	svc, _ := setupService(t, fixedTotals{})
	ctx := context.Background()
	u := addOwner(t, svc, "seaside", "Seaside Homestay")
	next := "Sunrise-at-Patar-99"

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.UserID, goodPassword, next, next+"x"), ErrPasswordMismatch)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.UserID, goodPassword, "short", "short"), auth.ErrPasswordTooShort)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.UserID, "not-it", next, next), ErrWrongPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.UserID, "", next, next), ErrMissingFields)

	require.NoError(t, svc.ChangePassword(ctx, u.UserID, goodPassword, next, next))
	_, err := svc.Authenticate(ctx, "seaside", next)
	assert.NoError(t, err)
}

func TestCreateMTOAndSetOwner(t *testing.T) {
	svc, db := setupService(t, fixedTotals{})
	ctx := context.Background()

	mto, err := svc.CreateMTO(ctx, "tourism", goodPassword, "Tourism Office")
	require.NoError(t, err)
	assert.Equal(t, models.RoleMTO, mto.Role)
	_, err = svc.CreateMTO(ctx, "tourism", goodPassword, "Again")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	u := addOwner(t, svc, "seaside", "Seaside Homestay")
	newOwner := models.Account{Username: "heir", PasswordHash: "x", Role: models.RoleOwner, IsActive: true}
	require.NoError(t, db.Create(&newOwner).Error)

	require.NoError(t, svc.SetOwner(ctx, "Seaside Homestay", "heir"))
	var h models.Homestay
	require.NoError(t, db.First(&h, u.HomestayID).Error)
	assert.Equal(t, newOwner.ID, h.OwnerID)

	assert.ErrorIs(t, svc.SetOwner(ctx, "Nowhere", "heir"), ErrHomestayNotFound)
	assert.ErrorIs(t, svc.SetOwner(ctx, "Seaside Homestay", "ghost"), ErrUserNotFound)
}

func TestAccountEvents(t *testing.T) {
	svc, _ := setupService(t, fixedTotals{})
	ctx := context.Background()
	mto, err := svc.CreateMTO(ctx, "tourism", goodPassword, "Tourism Office")
	require.NoError(t, err)

	u, err := svc.AddHomestayUser(ctx, NewHomestayUser{
		ActorID: mto.ID, Username: "seaside", Password: goodPassword,
		HomestayName: "Seaside Homestay", OwnerName: "Lita", Address: "Patar",
	})
	require.NoError(t, err)
	_, err = svc.EditHomestayUser(ctx, HomestayUserEdit{
		ActorID: mto.ID, Username: "seaside", Address: "Germinal", Status: StatusInactive,
	})
	require.NoError(t, err)

	events, err := svc.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventChanged, events[0].Action)
	assert.Equal(t, "Changed status, address.", events[0].Message)
	assert.Equal(t, models.EventAdded, events[1].Action)
	assert.Equal(t, u.UserID, events[1].AccountID)
	assert.Equal(t, "seaside", events[1].Summary)
	require.NotNil(t, events[1].ActorID)
	assert.Equal(t, mto.ID, *events[1].ActorID)

	latest, err := svc.ListEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, events[0].ID, latest[0].ID)
}

func TestEditProfile(t *testing.T) {
	svc, db := setupService(t, fixedTotals{})
	ctx := context.Background()
	u := addOwner(t, svc, "seaside", "Seaside Homestay")

	p, err := svc.EditProfile(ctx, u.UserID, "  Lita Ramos ", "Lita@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Lita Ramos", p.Name)
	assert.Equal(t, "lita@example.com", p.Email)
	assert.Equal(t, models.RoleOwner, p.Role)

	var stored models.Account
	require.NoError(t, db.First(&stored, u.UserID).Error)
	assert.Equal(t, "Lita Ramos", stored.Name)

	events, err := svc.ListEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Changed name, email.", events[0].Message)
	require.NotNil(t, events[0].ActorID)
	assert.Equal(t, u.UserID, *events[0].ActorID)

	_, err = svc.EditProfile(ctx, u.UserID, " ", "")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.EditProfile(ctx, 4242, "Ghost", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
