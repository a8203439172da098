package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barberia/reservation-backend/internal/model"
	"github.com/barberia/reservation-backend/internal/repository"
)

// AdminReservationHandler serves the administrative reservation surface.
// It spans both databases: reservations and slots live in the scheduling
// database, while the customer names shown in listings are fetched
// best-effort from the accounts database.
type AdminReservationHandler struct {
	SlotRepo        *repository.SlotRepo
	BarberRepo      *repository.BarberRepo
	ReservationRepo *repository.ReservationRepo
	Users           *repository.UserRepo
}

// NewAdminReservationHandler constructs the handler; all dependencies
// must be non-nil.
func NewAdminReservationHandler(slotRepo *repository.SlotRepo, barberRepo *repository.BarberRepo, reservationRepo *repository.ReservationRepo, users *repository.UserRepo) *AdminReservationHandler {
	if slotRepo == nil || barberRepo == nil || reservationRepo == nil || users == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{
		SlotRepo:        slotRepo,
		BarberRepo:      barberRepo,
		ReservationRepo: reservationRepo,
		Users:           users,
	}
}

// ListAll handles GET /v1/admin/reservations.  Customer display fields
// come from the accounts database; a lookup failure there degrades to a
// placeholder name instead of failing the listing, since the two stores
// are independently owned.
func (h *AdminReservationHandler) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	details, err := h.ReservationRepo.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}

	// one accounts lookup per distinct user
	names := make(map[uint64]model.User)
	for i := range details {
		uid := details[i].UserID
		u, ok := names[uid]
		if !ok {
			var err error
			u, err = h.Users.GetByID(ctx, uid)
			if err != nil {
				u = model.User{ID: uid, Name: fmt.Sprintf("user #%d", uid)}
			}
			names[uid] = u
		}
		details[i].CustomerName = u.Name
		details[i].CustomerEmail = u.Email
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// Update handles PUT /v1/admin/reservations/:id.  Either barber_id or
// scheduled_at (RFC 3339) must be present.  Rescheduling rewrites only
// the reservation's snapshot; the capacity claim stays with the
// originally claimed slot.
func (h *AdminReservationHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		BarberID    *uint64 `json:"barber_id"`
		ScheduledAt *string `json:"scheduled_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BarberID == nil && body.ScheduledAt == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one field must be provided"})
	}

	ctx := c.Request().Context()
	if body.BarberID != nil {
		ok, err := h.BarberRepo.Exists(ctx, *body.BarberID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
		}
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "barber not found"})
		}
	}
	var scheduledAt *time.Time
	if body.ScheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *body.ScheduledAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC 3339"})
		}
		scheduledAt = &t
	}

	if err := h.ReservationRepo.UpdateAdmin(ctx, id, body.BarberID, scheduledAt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation updated"})
}

// Delete handles DELETE /v1/admin/reservations/:id.  Reading the
// reservation, releasing the claimed capacity and deleting the row run
// in one transaction; failure at any step rolls back all of it.  The
// release floors at zero and tolerates a slot that no longer exists.
func (h *AdminReservationHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	tx, err := h.SlotRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slotID, err := h.ReservationRepo.SlotIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if err := h.SlotRepo.ReleaseTx(ctx, tx, slotID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release capacity"})
	}
	if err := h.ReservationRepo.DeleteTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// CreateSlot handles POST /v1/admin/slots so administrators can open new
// capacity.  scheduled_at is RFC 3339.  A total_capacity of zero is
// allowed and creates a slot nothing can claim; the pointer separates an
// explicit zero from a missing field.
func (h *AdminReservationHandler) CreateSlot(c echo.Context) error {
	var body struct {
		ScheduledAt   string  `json:"scheduled_at"`
		TotalCapacity *uint32 `json:"total_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ScheduledAt == "" || body.TotalCapacity == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at and total_capacity are required"})
	}
	scheduledAt, err := time.Parse(time.RFC3339, body.ScheduledAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC 3339"})
	}
	id, err := h.SlotRepo.Create(c.Request().Context(), scheduledAt, *body.TotalCapacity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create slot"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}
