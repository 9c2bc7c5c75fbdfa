package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caremarket/caremarket/internal/domain/account"
	"github.com/caremarket/caremarket/internal/domain/appointment"
	"github.com/caremarket/caremarket/internal/domain/order"
	"github.com/caremarket/caremarket/internal/domain/prescription"
	"github.com/caremarket/caremarket/internal/platform/notification"
	"github.com/caremarket/caremarket/internal/platform/websocket"
)

// Dispatcher fans domain events out to the three delivery paths: the
// persisted inbox, templated email, and the websocket hub. It satisfies
// the event sinks of the order, appointment and prescription services.
// Delivery failures are logged and never fail the originating operation.
type Dispatcher struct {
	inbox *Service
	mail  *notification.Manager
	hub   *websocket.Hub
	users account.Repository
	log   zerolog.Logger
}

func NewDispatcher(inbox *Service, mail *notification.Manager, hub *websocket.Hub,
	users account.Repository, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{inbox: inbox, mail: mail, hub: hub, users: users, log: log}
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, o *order.Order) {
	title := "Order placed"
	body := fmt.Sprintf("Your order of %d item(s) totalling %.2f was received.", len(o.Items), o.Total)
	d.deliver(ctx, o.UserID, KindOrderStatus, title, body, &o.ID, "order-status", map[string]string{
		"order_id": o.ID.String(),
		"status":   o.Status,
	})
}

func (d *Dispatcher) OrderStatusChanged(ctx context.Context, o *order.Order, previous string) {
	title := fmt.Sprintf("Order %s", o.Status)
	body := fmt.Sprintf("Your order moved from %s to %s.", previous, o.Status)
	d.deliver(ctx, o.UserID, KindOrderStatus, title, body, &o.ID, "order-status", map[string]string{
		"order_id": o.ID.String(),
		"status":   o.Status,
	})
}

func (d *Dispatcher) AppointmentBooked(ctx context.Context, a *appointment.Appointment) {
	data := map[string]string{
		"date": a.StartTime.Format("2006-01-02"),
		"time": a.StartTime.Format("15:04"),
	}
	d.deliver(ctx, a.PatientID, KindAppointment, "Appointment requested",
		fmt.Sprintf("Your appointment on %s at %s is awaiting confirmation.", data["date"], data["time"]),
		&a.ID, "appointment-booked", data)
	// The doctor only gets the inbox/socket ping, no email.
	d.notifyInbox(ctx, a.DoctorID, KindAppointment, "New appointment request",
		fmt.Sprintf("A patient requested %s at %s.", data["date"], data["time"]), &a.ID)
}

func (d *Dispatcher) AppointmentStatusChanged(ctx context.Context, a *appointment.Appointment, previous string) {
	data := map[string]string{
		"status": a.Status,
		"date":   a.StartTime.Format("2006-01-02"),
		"time":   a.StartTime.Format("15:04"),
	}
	d.deliver(ctx, a.PatientID, KindAppointment,
		fmt.Sprintf("Appointment %s", a.Status),
		fmt.Sprintf("Your appointment on %s at %s is now %s.", data["date"], data["time"], a.Status),
		&a.ID, "appointment-status", data)
}

func (d *Dispatcher) PrescriptionIssued(ctx context.Context, p *prescription.Prescription) {
	data := map[string]string{"expires": p.ExpiresAt.Format("2006-01-02")}
	if doctor, err := d.users.GetByID(ctx, p.DoctorID); err == nil {
		data["doctor"] = doctor.Name
	}
	d.deliver(ctx, p.PatientID, KindPrescription, "New prescription",
		fmt.Sprintf("You received a new prescription with %d item(s).", len(p.Items)),
		&p.ID, "prescription-issued", data)
}

func (d *Dispatcher) PrescriptionDispensed(ctx context.Context, p *prescription.Prescription) {
	d.deliver(ctx, p.PatientID, KindPrescriptionReady, "Prescription ready",
		"Your prescription has been dispensed and is ready for pickup.",
		&p.ID, "prescription-ready", map[string]string{})
}

// deliver writes the inbox row, pushes the websocket event and sends the
// templated email.
func (d *Dispatcher) deliver(ctx context.Context, userID uuid.UUID, kind, title, body string,
	refID *uuid.UUID, templateID string, data map[string]string) {
	d.notifyInbox(ctx, userID, kind, title, body, refID)

	if d.mail != nil {
		u, err := d.users.GetByID(ctx, userID)
		if err != nil {
			d.log.Warn().Err(err).Str("user_id", userID.String()).Msg("recipient lookup failed")
			return
		}
		data["name"] = u.Name
		if _, err := d.mail.SendTemplate(ctx, templateID, u.Email, data); err != nil {
			d.log.Warn().Err(err).Str("template", templateID).Msg("notification email failed")
		}
	}
}

func (d *Dispatcher) notifyInbox(ctx context.Context, userID uuid.UUID, kind, title, body string, refID *uuid.UUID) *Notification {
	n, err := d.inbox.Notify(ctx, userID, kind, title, body, refID)
	if err != nil {
		d.log.Error().Err(err).Str("user_id", userID.String()).Msg("inbox write failed")
		return nil
	}
	if d.hub != nil {
		d.hub.NotifyUser(userID, "notification."+kind, n)
	}
	return n
}
