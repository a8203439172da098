package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/barberia/reservation-backend/internal/model"
	"github.com/barberia/reservation-backend/internal/queue"
	"github.com/barberia/reservation-backend/internal/repository"
	"github.com/barberia/reservation-backend/internal/service"
	"github.com/barberia/reservation-backend/internal/utils"
)

// FicketEnqueuer starts background document generation for an attention
// code.  *service.FicketGenerator satisfies it; tests substitute a fake.
type FicketEnqueuer interface {
	Enqueue(code string)
}

// BookingHandler implements the reservation surface: slot and barber
// listings, reservation creation and the read endpoints customers poll.
// CreateReservation runs the critical capacity claim inside a single
// transaction on the scheduling database.
type BookingHandler struct {
	SlotRepo        *repository.SlotRepo
	BarberRepo      *repository.BarberRepo
	ReservationRepo *repository.ReservationRepo
	Ficket          FicketEnqueuer

	// publish sends the confirmed event to the broker.  Failures are
	// logged and ignored; swappable in tests.
	publish func(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(slotRepo *repository.SlotRepo, barberRepo *repository.BarberRepo, reservationRepo *repository.ReservationRepo, ficket FicketEnqueuer) *BookingHandler {
	if slotRepo == nil || barberRepo == nil || reservationRepo == nil || ficket == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{
		SlotRepo:        slotRepo,
		BarberRepo:      barberRepo,
		ReservationRepo: reservationRepo,
		Ficket:          ficket,
		publish:         service.PublishReservationConfirmed,
	}
}

// ListSlots handles GET /v1/slots.  It returns every slot ordered by
// scheduled time, including total and reserved counts so clients can
// show availability.  No authentication and no locking.
func (h *BookingHandler) ListSlots(c echo.Context) error {
	slots, err := h.SlotRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load slots"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

// ListBarbers handles GET /v1/barbers so a customer can pick a barber
// when reserving.
func (h *BookingHandler) ListBarbers(c echo.Context) error {
	barbers, err := h.BarberRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load barbers"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": barbers})
}

// CreateReservation handles POST /v1/reservations.  The whole
// claim-then-insert sequence is one transaction: the slot row is locked
// by ClaimTx, the reservation row is inserted with the snapshotted slot
// time, and both persist or neither does.  A claimed slot with no
// reservation is never observable.  Only after a successful commit does
// the handler hand the attention code to the ficket generator and the
// event publisher; neither can block or fail the response.
func (h *BookingHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		SlotID   uint64 `json:"slot_id"`
		BarberID uint64 `json:"barber_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SlotID == 0 || body.BarberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id and barber_id are required"})
	}

	ctx := c.Request().Context()

	// The barber is resolved before any capacity is claimed so an
	// unknown barber never touches the ledger.
	ok, err := h.BarberRepo.Exists(ctx, body.BarberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "barber not found"})
	}

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

	scheduledAt, err := h.SlotRepo.ClaimTx(ctx, tx, body.SlotID)
	if err != nil {
		switch err {
		case repository.ErrSlotNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		case repository.ErrNoCapacity:
			return c.JSON(http.StatusConflict, echo.Map{"error": "no capacity left for this slot"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to claim slot"})
		}
	}

	res := &model.Reservation{
		UserID:           userID,
		BarberID:         body.BarberID,
		SlotID:           body.SlotID,
		ScheduledAt:      scheduledAt,
		AttentionCode:    utils.NewAttentionCode(),
		ProcessingStatus: model.StatusPending,
	}
	if err := h.ReservationRepo.CreateTx(ctx, tx, res); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// Post-commit, fire-and-forget.  The response does not wait on
	// either of these and their failures cannot undo the reservation.
	h.Ficket.Enqueue(res.AttentionCode)
	go func() {
		ev := queue.ReservationConfirmedEvent{
			ReservationID: res.ID,
			UserID:        res.UserID,
			BarberID:      res.BarberID,
			SlotID:        res.SlotID,
			AttentionCode: res.AttentionCode,
			ScheduledAt:   res.ScheduledAt.UTC().Format(time.RFC3339),
			ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := h.publish(context.Background(), ev); err != nil {
			log.Printf("booking: publish confirmed event failed for %s: %v", res.AttentionCode, err)
		}
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"attention_code": res.AttentionCode,
		"message":        "reservation created; the appointment PDF is being generated in the background",
	})
}

// GetStatus handles GET /v1/reservations/status/:code, the polling
// endpoint for ficket generation.
func (h *BookingHandler) GetStatus(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "attention code required"})
	}
	status, err := h.ReservationRepo.StatusByCode(c.Request().Context(), code)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch status"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"attention_code":    code,
		"processing_status": status,
	})
}

// MyReservations handles GET /v1/reservations/mine, listing the caller's
// reservations with the barber's display fields joined in.
func (h *BookingHandler) MyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.ReservationRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// ByBarber handles GET /v1/reservations/by-barber/:id, the barber's view
// of their appointments.
func (h *BookingHandler) ByBarber(c echo.Context) error {
	barberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid barber id"})
	}
	details, err := h.ReservationRepo.ListByBarber(c.Request().Context(), barberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}
